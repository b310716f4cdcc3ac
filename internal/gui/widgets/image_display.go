package widgets

import (
	"image"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/canvas"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/widget"
)

const (
	ImageAreaWidth  = 500
	ImageAreaHeight = 400
)

// ImageDisplay shows the chart next to its binarized mask.
type ImageDisplay struct {
	container  fyne.CanvasObject
	chartImage *canvas.Image
	maskImage  *canvas.Image
	splitView  *container.Split
}

func NewImageDisplay() *ImageDisplay {
	display := &ImageDisplay{}
	display.chartImage = newImageCanvas()
	display.maskImage = newImageCanvas()

	display.splitView = container.NewHSplit(
		container.NewBorder(widget.NewRichTextFromMarkdown("**Chart**"), nil, nil, nil, display.chartImage),
		container.NewBorder(widget.NewRichTextFromMarkdown("**Mask**"), nil, nil, nil, display.maskImage),
	)
	display.splitView.SetOffset(0.5)
	display.container = display.splitView
	return display
}

func newImageCanvas() *canvas.Image {
	img := canvas.NewImageFromImage(nil)
	img.FillMode = canvas.ImageFillContain
	img.ScaleMode = canvas.ImageScalePixels
	img.SetMinSize(fyne.NewSize(ImageAreaWidth, ImageAreaHeight))
	return img
}

func (id *ImageDisplay) GetContainer() fyne.CanvasObject {
	return id.container
}

func (id *ImageDisplay) SetChartImage(img image.Image) {
	id.chartImage.Image = img
	id.chartImage.Refresh()
}

func (id *ImageDisplay) SetMaskImage(img image.Image) {
	id.maskImage.Image = img
	id.maskImage.Refresh()
}
