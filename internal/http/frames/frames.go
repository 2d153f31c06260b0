package frames

import (
	"embed"
	"html/template"
	"strconv"
	"strings"

	"github.com/earthnet/frame-survey/internal/services"
)

//go:embed templates/*.html
var templateFS embed.FS

// TemplateName is the gin HTML template every frame page renders through.
const TemplateName = "frame.html"

func Templates() (*template.Template, error) {
	return template.ParseFS(templateFS, "templates/*.html")
}

type Button struct {
	Index  int
	Label  string
	Action string
	Target string
}

// View is the data behind one frame card.
type View struct {
	Title    string
	ImageURL string
	PostURL  string
	Buttons  []Button
}

type Outcome string

const (
	OutcomeSuccess          Outcome = "success"
	OutcomeAlreadyCompleted Outcome = "already_completed"
	OutcomeNoSuchSurvey     Outcome = "no_such_survey"
	OutcomeInvalidMessage   Outcome = "invalid_message"
	OutcomeNoAddress        Outcome = "no_address"
	OutcomeIncomplete       Outcome = "incomplete"
	OutcomeFailure          Outcome = "failure"
)

type Config struct {
	// PublicURL is the externally visible base that post URLs point at.
	PublicURL     string
	Title         string
	OutcomeImages map[Outcome]string
}

type Renderer struct {
	cfg Config
}

func NewRenderer(cfg Config) *Renderer {
	cfg.PublicURL = strings.TrimRight(strings.TrimSpace(cfg.PublicURL), "/")
	if cfg.Title == "" {
		cfg.Title = "The Network State Survey"
	}
	if cfg.OutcomeImages == nil {
		cfg.OutcomeImages = map[Outcome]string{}
	}
	return &Renderer{cfg: cfg}
}

func (r *Renderer) Page(p *services.Page) View {
	title := p.Title
	if title == "" {
		title = r.cfg.Title
	}
	v := View{Title: title, ImageURL: p.ImageURL}

	switch p.Kind {
	case services.PageEnd:
		if p.NFTURL != "" {
			v.Buttons = []Button{{Index: 1, Label: "View your NFT", Action: "link", Target: p.NFTURL}}
		}
	default:
		for i, label := range p.Buttons {
			v.Buttons = append(v.Buttons, Button{Index: i + 1, Label: label, Action: "post"})
		}
		v.PostURL = r.PostURL(p.TaskID, p.PostPage)
	}
	return v
}

// Outcome renders a terminal card with no buttons.
func (r *Renderer) Outcome(o Outcome) View {
	img, ok := r.cfg.OutcomeImages[o]
	if !ok {
		img = r.cfg.OutcomeImages[OutcomeFailure]
	}
	return View{Title: r.cfg.Title, ImageURL: img}
}

func (r *Renderer) PostURL(taskID uint, page int) string {
	return r.cfg.PublicURL + "/task/" + strconv.FormatUint(uint64(taskID), 10) + "/" + strconv.Itoa(page)
}
