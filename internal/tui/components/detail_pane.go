package components

import (
	"fmt"
	"strings"

	"github.com/mmcdole/shutter/internal/domain"
	"github.com/mmcdole/shutter/internal/presenter"
	"github.com/mmcdole/shutter/internal/tui/styles"
)

// DetailPane displays a photo's metadata and image state
type DetailPane struct {
	detail  *presenter.Detail
	width   int
	height  int
	spinner string
}

// NewDetailPane creates an empty detail pane
func NewDetailPane() DetailPane {
	return DetailPane{}
}

// SetDetail sets the presenter to display
func (d *DetailPane) SetDetail(detail *presenter.Detail) {
	d.detail = detail
}

// Detail returns the displayed presenter, or nil
func (d DetailPane) Detail() *presenter.Detail { return d.detail }

func (d *DetailPane) SetSize(width, height int) {
	d.width = width
	d.height = height
}

// SetSpinner sets the rendered spinner frame shown while images load
func (d *DetailPane) SetSpinner(view string) { d.spinner = view }

func (d DetailPane) View() string {
	style := styles.InactiveBorder
	frameW, frameH := style.GetFrameSize()
	return style.
		Width(max(d.width-frameW, 0)).
		Height(max(d.height-frameH, 0)).
		Render(d.renderContent(max(d.width-frameW, 10)))
}

func (d DetailPane) renderContent(width int) string {
	if d.detail == nil {
		return styles.DimStyle.Render("No photo selected")
	}

	var lines []string
	add := func(s string) { lines = append(lines, s) }

	caption := d.detail.Caption()
	if caption == "" {
		caption = "Untitled"
	}
	add(styles.TitleStyle.Render(styles.Truncate(caption, width)))
	add("")

	w, h := d.detail.ExpectedSize()
	add(field("Size", fmt.Sprintf("%d × %d", w, h)))
	add(field("Image", d.imageState()))
	add("")

	name := d.detail.Name()
	if name == "" {
		name = "Unknown"
	}
	author := name
	if u := d.detail.Username(); u != "" {
		author += styles.DimStyle.Render(" @" + u)
	}
	add(field("By", author))
	add(field("Avatar", imageLabel(d.detail.Profile(), "")))

	if bio := strings.TrimSpace(d.detail.Bio()); bio != "" {
		add("")
		for _, line := range wrap(bio, width) {
			add(styles.SubtitleStyle.Render(line))
		}
	}

	add("")
	add(styles.DimStyle.Render("esc back"))
	return strings.Join(lines, "\n")
}

func (d DetailPane) imageState() string {
	img := d.detail.Image()
	switch {
	case img == nil && d.detail.Loading():
		return d.spinner + " loading"
	case img == nil:
		return styles.DimStyle.Render("unavailable")
	case !d.detail.HasFullImage() && d.detail.Loading():
		return imageLabel(img, "thumbnail") + " " + d.spinner
	case !d.detail.HasFullImage():
		return imageLabel(img, "thumbnail")
	default:
		return imageLabel(img, "full")
	}
}

func imageLabel(img *domain.Image, kind string) string {
	if img == nil {
		return styles.DimStyle.Render("none")
	}
	label := fmt.Sprintf("%s %dx%d %s", img.Format, img.Width, img.Height, styles.HumanBytes(img.Size()))
	if kind != "" {
		label = kind + " · " + label
	}
	return styles.SuccessStyle.Render(styles.ThumbReadyChar) + " " + label
}

func field(label, value string) string {
	return styles.AccentStyle.Render(fmt.Sprintf("%-7s", label)) + " " + value
}

// wrap breaks text into lines no wider than width
func wrap(text string, width int) []string {
	words := strings.Fields(text)
	if len(words) == 0 {
		return nil
	}
	var lines []string
	line := words[0]
	for _, w := range words[1:] {
		if len([]rune(line))+1+len([]rune(w)) > width {
			lines = append(lines, line)
			line = w
			continue
		}
		line += " " + w
	}
	return append(lines, line)
}
