// Command foldermap maps the folder icons of a saved screenshot to their
// labels, the same way a navigation run does on the live screen.
package main

import (
	"flag"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"os"
	"strings"

	"treenav/internal/capture"
	"treenav/internal/folders"
	"treenav/internal/locator"
	"treenav/internal/ocr"
	"treenav/internal/session"
	"treenav/internal/synth"
	"treenav/internal/template"
	"treenav/pkg/geometry"

	"gocv.io/x/gocv"
	_ "golang.org/x/image/bmp"
)

func main() {
	imagePath := flag.String("image", "", "Path to a screenshot (PNG, JPEG or BMP)")
	assets := flag.String("assets", "images", "Template image directory")
	icon := flag.String("icon", "folder_yellow.png", "Icon template to map")
	regionArg := flag.String("region", "0.1,0.1,0.3,0.95", "Search region x0,y0,x1,y1")
	threshold := flag.Float64("threshold", 0.65, "Icon match threshold")
	lang := flag.String("lang", "eng", "Tesseract language")
	out := flag.String("out", "", "Write the annotated region to this PNG")
	selfCheck := flag.Bool("selfcheck", false, "Map a rendered tree instead of a screenshot")
	flag.Parse()

	if *imagePath == "" && !*selfCheck {
		fmt.Println("Usage: foldermap -image <screenshot> [-icon folder_yellow.png] [-region x0,y0,x1,y1] [-out map.png]")
		fmt.Println("       foldermap -selfcheck")
		os.Exit(1)
	}

	engine, err := ocr.NewEngine(*lang)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to start OCR: %v\n", err)
		os.Exit(1)
	}
	defer engine.Close()
	engine.MinHeight = 32

	sess := session.Discard()
	store := template.NewStore(*assets, sess)
	defer store.Close()

	var screen gocv.Mat
	region := geometry.FullScreen
	if *selfCheck {
		labels := []string{"1A", "2B", "3B_WIP", "Functional_Requirements", "ClimateOld"}
		rows := make([]synth.Row, len(labels))
		for i, l := range labels {
			rows[i] = synth.Row{Label: l}
		}
		screen, _ = synth.Tree(400, 40+30*len(rows), 30, rows)
		store.Add(*icon, synth.FolderIcon())
		fmt.Printf("Self-check with labels: %s\n", strings.Join(labels, ", "))
	} else {
		if region, err = geometry.ParseSearchRegion(*regionArg); err != nil {
			fmt.Fprintf(os.Stderr, "%v\n", err)
			os.Exit(1)
		}
		screen, err = loadImage(*imagePath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "%v\n", err)
			os.Exit(1)
		}
	}
	defer screen.Close()

	tmpl, err := store.Get(*icon)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load icon: %v\n", err)
		os.Exit(1)
	}

	src := &capture.Still{Mat: screen}
	crop, bounds, size, err := capture.GrabColor(src, region)
	if err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		os.Exit(1)
	}
	defer crop.Close()
	fmt.Printf("Screen %dx%d, region %s = %dx%d at (%d,%d)\n",
		size.X, size.Y, region, bounds.Width, bounds.Height, bounds.X, bounds.Y)

	gray := capture.Gray(crop)
	defer gray.Close()

	params := locator.DefaultParams()
	params.Threshold = *threshold
	points, stats := locator.LocateAll(gray, tmpl, params)
	fmt.Printf("Icon %s (%dx%d): %s\n", tmpl.Name, tmpl.Width(), tmpl.Height(), stats)

	mapper := folders.NewMapper(engine, sess)
	fm := mapper.Map(crop, image.Pt(bounds.X, bounds.Y), tmpl, points)

	fmt.Printf("\n%-32s %12s %12s\n", "Label", "Click", "Icon")
	for _, e := range fm.Entries() {
		fmt.Printf("%-32s %5d,%-6d %5d,%-6d\n", e.Text, e.ClickX, e.ClickY, e.IconX, e.IconY)
	}

	if *out != "" {
		marks := make([]folders.Mark, 0, fm.Len())
		for _, e := range fm.Entries() {
			x, y := e.IconX-bounds.X, e.IconY-bounds.Y
			marks = append(marks, folders.Mark{
				Icon:  image.Rect(x, y, x+tmpl.Width(), y+tmpl.Height()),
				ROI:   geometry.RectInt{X: x + tmpl.Width() - 1, Y: y, Width: folders.ROIReach, Height: tmpl.Height()}.ClampTo(crop.Cols(), crop.Rows()),
				Text:  e.Text,
				Click: image.Pt(e.ClickX-bounds.X, e.ClickY-bounds.Y),
			})
		}
		if err := folders.SaveOverview(*out, crop, marks); err != nil {
			fmt.Fprintf(os.Stderr, "%v\n", err)
			os.Exit(1)
		}
		fmt.Printf("\nAnnotated region written to %s\n", *out)
	}
}

func loadImage(path string) (gocv.Mat, error) {
	f, err := os.Open(path)
	if err != nil {
		return gocv.NewMat(), fmt.Errorf("failed to open image: %w", err)
	}
	defer f.Close()

	img, format, err := image.Decode(f)
	if err != nil {
		return gocv.NewMat(), fmt.Errorf("failed to decode image: %w", err)
	}
	b := img.Bounds()
	fmt.Printf("Loaded %s image: %dx%d pixels\n", format, b.Dx(), b.Dy())
	return capture.ToBGR(img)
}
