package render

import (
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"io"

	"github.com/disintegration/imaging"
	"github.com/skip2/go-qrcode"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
)

// Door display geometry in pixels.
const (
	ImageWidth  = 800
	ImageHeight = 480

	captionHeight = 40
	headerHeight  = 24
	labelWidth    = 100
	qrSize        = 36
	jpegQuality   = 90
)

var (
	bookedFill = color.NRGBA{R: 0xff, G: 0x73, B: 0x73, A: 0xff}
	openFill   = color.NRGBA{R: 0xc3, G: 0xfc, B: 0xab, A: 0xff}
	gridColor  = color.NRGBA{R: 0x60, G: 0x60, B: 0x60, A: 0xff}
	textColor  = color.Black
)

// Image draws the week as an 800x480 raster and encodes it as JPEG or PNG.
func Image(w io.Writer, week Week, format Format, opts Options) error {
	img, err := Canvas(week, opts)
	if err != nil {
		return err
	}

	var encodeErr error
	switch format {
	case FormatJPEG:
		encodeErr = imaging.Encode(w, img, imaging.JPEG, imaging.JPEGQuality(jpegQuality))
	case FormatPNG:
		encodeErr = imaging.Encode(w, img, imaging.PNG)
	default:
		return fmt.Errorf("%w: %q is not an image format", ErrUnknownFormat, string(format))
	}
	if encodeErr != nil {
		return fmt.Errorf("render: encode %s: %w", format, encodeErr)
	}
	return nil
}

// Canvas draws the door display image without encoding it.
func Canvas(week Week, opts Options) (*image.NRGBA, error) {
	img := imaging.New(ImageWidth, ImageHeight, color.White)
	face := basicfont.Face7x13

	drawText(img, face, week.RoomID, ImageWidth/2-textWidth(face, week.RoomID)/2, captionHeight/2+5)

	days := len(week.Days)
	if days == 0 {
		days = len(DayNames)
	}
	slots := len(week.Slots)
	colWidth := (ImageWidth - labelWidth) / days
	rowHeight := 1
	if slots > 0 {
		rowHeight = (ImageHeight - captionHeight - headerHeight) / slots
	}

	top := captionHeight
	for day := 0; day < days; day++ {
		x := labelWidth + day*colWidth
		label := week.DayLabel(day)
		drawText(img, face, label, x+colWidth/2-textWidth(face, label)/2, top+headerHeight-7)
	}

	for slot, label := range week.Slots {
		y := top + headerHeight + slot*rowHeight
		drawText(img, face, label, 6, y+rowHeight/2+4)

		for day := 0; day < days; day++ {
			x := labelWidth + day*colWidth
			cell := week.Cell(slot, day)
			fill := openFill
			if cell.Booked {
				fill = bookedFill
			}
			rect := image.Rect(x, y, x+colWidth, y+rowHeight)
			draw.Draw(img, rect, &image.Uniform{C: fill}, image.Point{}, draw.Src)
			strokeRect(img, rect, gridColor)

			if cell.Booked {
				maxChars := (colWidth - 6) / face.Advance
				title := truncate(cell.Title(), maxChars)
				if cell.Instructor == "" {
					drawText(img, face, title, x+colWidth/2-textWidth(face, title)/2, y+rowHeight/2+4)
					continue
				}
				instructor := truncate(cell.Instructor, maxChars)
				drawText(img, face, title, x+colWidth/2-textWidth(face, title)/2, y+rowHeight/2-2)
				drawText(img, face, instructor, x+colWidth/2-textWidth(face, instructor)/2, y+rowHeight/2+11)
			}
		}
	}

	if opts.QRCodeURL != "" {
		code, err := qrcode.New(opts.QRCodeURL, qrcode.Medium)
		if err != nil {
			return nil, fmt.Errorf("render: qr code: %w", err)
		}
		qr := code.Image(qrSize)
		img = imaging.Overlay(img, qr, image.Pt(ImageWidth-qrSize-4, (captionHeight-qrSize)/2), 1.0)
	}
	return img, nil
}

func drawText(dst draw.Image, face font.Face, text string, x, y int) {
	d := &font.Drawer{
		Dst:  dst,
		Src:  image.NewUniform(textColor),
		Face: face,
		Dot:  fixed.P(x, y),
	}
	d.DrawString(text)
}

func textWidth(face font.Face, text string) int {
	return font.MeasureString(face, text).Ceil()
}

func strokeRect(img *image.NRGBA, r image.Rectangle, c color.Color) {
	for x := r.Min.X; x < r.Max.X; x++ {
		img.Set(x, r.Min.Y, c)
		img.Set(x, r.Max.Y-1, c)
	}
	for y := r.Min.Y; y < r.Max.Y; y++ {
		img.Set(r.Min.X, y, c)
		img.Set(r.Max.X-1, y, c)
	}
}

func truncate(text string, maxChars int) string {
	runes := []rune(text)
	if maxChars <= 0 || len(runes) <= maxChars {
		return text
	}
	if maxChars <= 2 {
		return string(runes[:maxChars])
	}
	return string(runes[:maxChars-2]) + ".."
}
