// Package imaging turns chart images into binary foreground masks with
// OpenCV.
package imaging

import (
	"fmt"
	"image"
	"image/color"

	"curve-digitizer/internal/config"
	"curve-digitizer/internal/models"

	"gocv.io/x/gocv"
)

// Options selects how pixels are classified as foreground.
type Options struct {
	// Mode is one of config.ModeOtsu, config.ModeFixed or config.ModeColor.
	Mode string
	// Threshold is the grey level cut for ModeFixed.
	Threshold float64
	// DarkForeground marks pixels darker than the cut as foreground.
	DarkForeground bool
	// Color and Tolerance describe the trace colour for ModeColor.
	Color     color.RGBA
	Tolerance float64
	// OpenKernel is the side of the square kernel used to remove speckle.
	// Zero or one disables the morphological open.
	OpenKernel int
}

// DefaultOptions binarizes with Otsu and treats dark ink as foreground.
func DefaultOptions() Options {
	return Options{
		Mode:           config.ModeOtsu,
		Threshold:      128,
		DarkForeground: true,
		Tolerance:      40,
	}
}

// OptionsFromConfig converts the [image] section of a job file.
func OptionsFromConfig(cfg config.ImageConfig) Options {
	opts := Options{
		Mode:           cfg.Mode,
		Threshold:      cfg.Threshold,
		DarkForeground: cfg.Foreground != config.ForegroundLight,
		Tolerance:      cfg.Tolerance,
		OpenKernel:     cfg.OpenKernel,
	}
	if len(cfg.Color) == 3 {
		opts.Color = color.RGBA{R: uint8(cfg.Color[0]), G: uint8(cfg.Color[1]), B: uint8(cfg.Color[2]), A: 255}
	}
	return opts
}

// MaskFromImage converts a decoded image and classifies its pixels.
func MaskFromImage(img image.Image, opts Options) (*models.Mask, error) {
	if img == nil {
		return nil, fmt.Errorf("image is nil")
	}

	mat, err := gocv.ImageToMatRGB(img)
	if err != nil {
		return nil, fmt.Errorf("failed to convert image to Mat: %w", err)
	}
	defer mat.Close()

	return MaskFromMat(mat, opts)
}

// MaskFromMat classifies the pixels of a BGR, BGRA or grey Mat.
func MaskFromMat(src gocv.Mat, opts Options) (*models.Mask, error) {
	if err := validateMat(src, "mask extraction"); err != nil {
		return nil, err
	}

	binary := gocv.NewMat()
	defer binary.Close()

	switch opts.Mode {
	case config.ModeOtsu, config.ModeFixed:
		gray, err := toGray(src)
		if err != nil {
			return nil, err
		}
		defer gray.Close()

		typ := gocv.ThresholdBinary
		if opts.DarkForeground {
			typ = gocv.ThresholdBinaryInv
		}
		thresh := float32(opts.Threshold)
		if opts.Mode == config.ModeOtsu {
			typ |= gocv.ThresholdOtsu
			thresh = 0
		}
		gocv.Threshold(gray, &binary, thresh, 255, typ)

	case config.ModeColor:
		bgr, err := toBGR(src)
		if err != nil {
			return nil, err
		}
		defer bgr.Close()

		lower, upper := colorBounds(opts.Color, opts.Tolerance)
		gocv.InRangeWithScalar(bgr, lower, upper, &binary)

	default:
		return nil, fmt.Errorf("unsupported mask mode %q", opts.Mode)
	}

	if opts.OpenKernel > 1 {
		kernel := gocv.GetStructuringElement(gocv.MorphRect, image.Pt(opts.OpenKernel, opts.OpenKernel))
		defer kernel.Close()

		opened := gocv.NewMat()
		defer opened.Close()
		gocv.MorphologyEx(binary, &opened, gocv.MorphOpen, kernel)
		opened.CopyTo(&binary)
	}

	if err := validateMat(binary, "mask export"); err != nil {
		return nil, err
	}
	return models.MaskFromBytes(binary.Cols(), binary.Rows(), binary.ToBytes())
}

// colorBounds returns the inclusive BGR box around target.
func colorBounds(target color.RGBA, tolerance float64) (gocv.Scalar, gocv.Scalar) {
	clamp := func(v float64) float64 {
		if v < 0 {
			return 0
		}
		if v > 255 {
			return 255
		}
		return v
	}
	r, g, b := float64(target.R), float64(target.G), float64(target.B)
	lower := gocv.NewScalar(clamp(b-tolerance), clamp(g-tolerance), clamp(r-tolerance), 0)
	upper := gocv.NewScalar(clamp(b+tolerance), clamp(g+tolerance), clamp(r+tolerance), 255)
	return lower, upper
}

func toGray(src gocv.Mat) (gocv.Mat, error) {
	dst := gocv.NewMat()
	switch src.Channels() {
	case 1:
		src.CopyTo(&dst)
	case 3:
		gocv.CvtColor(src, &dst, gocv.ColorBGRToGray)
	case 4:
		gocv.CvtColor(src, &dst, gocv.ColorBGRAToGray)
	default:
		dst.Close()
		return gocv.Mat{}, fmt.Errorf("unsupported channel count: %d", src.Channels())
	}
	return dst, nil
}

func toBGR(src gocv.Mat) (gocv.Mat, error) {
	dst := gocv.NewMat()
	switch src.Channels() {
	case 1:
		gocv.CvtColor(src, &dst, gocv.ColorGrayToBGR)
	case 3:
		src.CopyTo(&dst)
	case 4:
		gocv.CvtColor(src, &dst, gocv.ColorBGRAToBGR)
	default:
		dst.Close()
		return gocv.Mat{}, fmt.Errorf("unsupported channel count: %d", src.Channels())
	}
	return dst, nil
}

// MaskImage renders a mask as black ink on white for previews.
func MaskImage(mask *models.Mask) *image.Gray {
	img := image.NewGray(image.Rect(0, 0, mask.Width(), mask.Height()))
	for i := range img.Pix {
		img.Pix[i] = 255
	}
	for row := 0; row < mask.Height(); row++ {
		for col := 0; col < mask.Width(); col++ {
			if mask.IsForeground(row*mask.Width() + col) {
				img.Pix[row*img.Stride+col] = 0
			}
		}
	}
	return img
}
