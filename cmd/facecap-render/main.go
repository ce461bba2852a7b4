// facecap-render - renders a single face state to a PNG file, or prints
// its display list as JSON.
package main

import (
	"flag"
	"fmt"
	"log"
	"os"

	jsoniter "github.com/json-iterator/go"

	"github.com/teslashibe/go-facecap/pkg/render"
	"github.com/teslashibe/go-facecap/pkg/surface/ggsurface"
)

func main() {
	style := flag.String("style", "enhanced", "Render style: basic, enhanced")
	out := flag.String("o", "face.png", "Output PNG path")
	width := flag.Int("width", 400, "Surface width")
	height := flag.Int("height", 400, "Surface height")
	leftOpen := flag.Float64("left", 1, "Left eye openness 0..1")
	rightOpen := flag.Float64("right", 1, "Right eye openness 0..1")
	smile := flag.Float64("smile", 0, "Smile intensity 0..1 (0 = neutral)")
	idle := flag.Bool("idle", false, "Draw the idle instructions")
	scene := flag.Bool("scene", false, "Print the display list as JSON instead of writing a PNG")
	flag.Parse()

	s, err := render.ParseStyle(*style)
	if err != nil {
		log.Fatalf("❌ %v", err)
	}
	profile, _ := render.ProfileFor(s)

	face := profile.DefaultState()
	face.LeftEyeOpenness, face.RightEyeOpenness = *leftOpen, *rightOpen
	face.EyeLeftOpen, face.EyeRightOpen = *leftOpen > 0.3, *rightOpen > 0.3
	face.IsSmiling, face.SmileIntensity = *smile > 0, *smile

	opts := render.Options{Idle: *idle}

	if *scene {
		data, err := jsoniter.ConfigCompatibleWithStandardLibrary.MarshalIndent(
			render.Plan(face, profile, *width, *height, opts), "", "  ")
		if err != nil {
			log.Fatalf("❌ %v", err)
		}
		os.Stdout.Write(append(data, '\n'))
		return
	}

	surface := ggsurface.New(*width, *height)
	if err := render.Render(surface, face, profile, opts); err != nil {
		log.Fatalf("❌ Render failed: %v", err)
	}
	if err := surface.SavePNG(*out); err != nil {
		log.Fatalf("❌ Save failed: %v", err)
	}
	fmt.Printf("✅ Wrote %s (%s, %dx%d)\n", *out, s, *width, *height)
}
