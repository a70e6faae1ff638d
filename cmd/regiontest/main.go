// Command regiontest draws a search region on a screenshot so region
// fractions can be tuned without running a navigation.
package main

import (
	"flag"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"os"

	"treenav/internal/capture"
	"treenav/internal/config"
	"treenav/pkg/colorutil"
	"treenav/pkg/geometry"

	"gocv.io/x/gocv"
)

func main() {
	imagePath := flag.String("image", "", "Screenshot to annotate (default: capture the screen)")
	regionArg := flag.String("region", "", "Search region x0,y0,x1,y1")
	configPath := flag.String("config", "", "Draw every region of this config instead")
	out := flag.String("out", "region.png", "Output PNG")
	flag.Parse()

	regions := map[string]geometry.SearchRegion{}
	switch {
	case *regionArg != "":
		r, err := geometry.ParseSearchRegion(*regionArg)
		if err != nil {
			fmt.Fprintf(os.Stderr, "%v\n", err)
			os.Exit(1)
		}
		regions["region"] = r
	case *configPath != "":
		cfg, err := config.Load(*configPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "%v\n", err)
			os.Exit(1)
		}
		regions["tree"] = cfg.Regions.Tree
		regions["menu_header"] = cfg.Regions.MenuHeader
		regions["find_dialog"] = cfg.Regions.FindDialog
		regions["find_result"] = cfg.Regions.FindResult
		regions["toolbar"] = cfg.Regions.Toolbar
		regions["export"] = cfg.Regions.Export
		regions["export_dialog"] = cfg.Regions.ExportDialog
		regions["module_view"] = cfg.Regions.ModuleView
		regions["column_separator"] = cfg.Regions.ColumnSeparator
	default:
		fmt.Println("Usage: regiontest -region x0,y0,x1,y1 [-image shot.png] [-out region.png]")
		fmt.Println("       regiontest -config treenav.yaml [-image shot.png]")
		os.Exit(1)
	}

	screen, err := load(*imagePath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		os.Exit(1)
	}
	defer screen.Close()

	for name, r := range regions {
		rect := r.Rect(screen.Cols(), screen.Rows())
		fmt.Printf("%-12s %s = %dx%d at (%d,%d)\n", name, r, rect.Width, rect.Height, rect.X, rect.Y)
		gocv.Rectangle(&screen, rect.ToImage(), colorutil.ROI, 3)
		gocv.PutText(&screen, name, image.Pt(rect.X+5, rect.Y+20), gocv.FontHersheySimplex, 0.6, colorutil.ROI, 2)
	}

	if !gocv.IMWrite(*out, screen) {
		fmt.Fprintf(os.Stderr, "Failed to write %s\n", *out)
		os.Exit(1)
	}
	fmt.Printf("Written to %s\n", *out)
}

func load(path string) (gocv.Mat, error) {
	if path == "" {
		return capture.NewScreen().Grab()
	}
	f, err := os.Open(path)
	if err != nil {
		return gocv.NewMat(), fmt.Errorf("failed to open image: %w", err)
	}
	defer f.Close()
	img, _, err := image.Decode(f)
	if err != nil {
		return gocv.NewMat(), fmt.Errorf("failed to decode image: %w", err)
	}
	return capture.ToBGR(img)
}
