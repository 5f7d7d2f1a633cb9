package share

import (
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"image/png"
	"io"

	"github.com/derekprior/kickoff/internal/config"
	"github.com/derekprior/kickoff/internal/schedule"
	xdraw "golang.org/x/image/draw"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
)

// Card colors.
var (
	Background = color.RGBA{R: 0x0b, G: 0x3d, B: 0x2e, A: 0xff}
	Heading    = color.RGBA{R: 0xf5, G: 0xc5, B: 0x18, A: 0xff}
	Body       = color.RGBA{R: 0xff, G: 0xff, B: 0xff, A: 0xff}
)

const (
	padding    = 12
	lineHeight = 16
	scale      = 2
)

type line struct {
	text  string
	color color.Color
}

// cardLines is the text of MatchdayText without emoji, which the bitmap
// font cannot draw.
func cardLines(groups []config.Group, fixtures []schedule.Fixture, matchday int) []line {
	lines := []line{{fmt.Sprintf("TOURNAMENT FIXTURES - MATCHDAY %d", matchday), Heading}, {}}
	for _, g := range groups {
		day := schedule.ByMatchday(fixtures, matchday, g.ID)
		if len(day) == 0 {
			continue
		}
		lines = append(lines, line{groupName(g), Heading})
		for i, f := range day {
			lines = append(lines, line{fmt.Sprintf("%d. %s vs %s", i+1, f.HomeTeam, f.AwayTeam), Body})
		}
		lines = append(lines, line{})
	}
	lines = append(lines,
		line{"Good luck to all teams!", Body},
		line{fmt.Sprintf("#Tournament #Matchday%d", matchday), Heading},
	)
	return lines
}

// MatchdayImage draws the matchday fixtures onto a share card.
func MatchdayImage(groups []config.Group, fixtures []schedule.Fixture, matchday int) image.Image {
	face := basicfont.Face7x13
	lines := cardLines(groups, fixtures, matchday)

	width := 0
	for _, l := range lines {
		if w := font.MeasureString(face, l.text).Ceil(); w > width {
			width = w
		}
	}
	small := image.NewRGBA(image.Rect(0, 0, width+2*padding, len(lines)*lineHeight+2*padding))
	draw.Draw(small, small.Bounds(), image.NewUniform(Background), image.Point{}, draw.Src)

	d := &font.Drawer{Dst: small, Face: face}
	for i, l := range lines {
		if l.text == "" {
			continue
		}
		d.Src = image.NewUniform(l.color)
		d.Dot = fixed.P(padding, padding+i*lineHeight+face.Metrics().Ascent.Ceil())
		d.DrawString(l.text)
	}

	b := small.Bounds()
	card := image.NewRGBA(image.Rect(0, 0, b.Dx()*scale, b.Dy()*scale))
	xdraw.NearestNeighbor.Scale(card, card.Bounds(), small, b, xdraw.Src, nil)
	return card
}

// WritePNG encodes img as PNG.
func WritePNG(w io.Writer, img image.Image) error {
	if err := png.Encode(w, img); err != nil {
		return fmt.Errorf("encoding png: %w", err)
	}
	return nil
}
