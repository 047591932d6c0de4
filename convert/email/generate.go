// Package email converts design trees into table based HTML markup digestible
// by legacy email rendering engines.
package email

import (
	"context"
	"fmt"
	"strings"

	"github.com/beevik/etree"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"demc/config"
	"demc/design"
)

// Options is the recognized engine configuration. Zero values fall back to
// fluid width and placeholder images.
type Options struct {
	ImageMode          config.ImageExportMode
	WidthMode          config.WidthMode
	PlaceholderBaseURL string
	ExportScale        float64
	FluidMaxThreshold  float64
	FontStacks         map[string]string // extra family -> stack overrides
}

// OptionsFromConfig maps program configuration onto engine options.
func OptionsFromConfig(cfg *config.Config) Options {
	return Options{
		ImageMode:          cfg.Document.Images.Mode,
		WidthMode:          cfg.Document.Width.Mode,
		PlaceholderBaseURL: cfg.Document.Images.PlaceholderBaseURL,
		ExportScale:        cfg.Document.Images.ExportScale,
		FluidMaxThreshold:  cfg.Document.Width.FluidMaxThreshold,
		FontStacks:         cfg.Document.Fonts.Stacks,
	}
}

// Asset is one exported image of a conversion in assets mode. Names are
// sequential and unique within a single Generate call; list order equals
// emission order.
type Asset struct {
	Name string
	Data []byte
}

// Result is the outcome of one conversion: an HTML fragment (no document
// wrapper) and, in assets mode, the ordered exported images the caller is
// expected to package under images/.
type Result struct {
	HTML   string
	Assets []Asset
}

// Generator converts design trees to email markup. Safe for sequential reuse;
// a Generate call owns all of its mutable state.
type Generator struct {
	opts Options
	log  *zap.Logger
}

func New(opts Options, log *zap.Logger) *Generator {
	if log == nil {
		log = zap.NewNop()
	}
	if opts.PlaceholderBaseURL == "" {
		opts.PlaceholderBaseURL = "https://placehold.co"
	}
	if opts.ExportScale <= 0 {
		opts.ExportScale = 2
	}
	if opts.FluidMaxThreshold <= 0 {
		opts.FluidMaxThreshold = 480
	}
	return &Generator{opts: opts, log: log.Named("email")}
}

// session holds the only mutable state of a conversion - the asset list and
// its counter - owned exclusively by one in-flight Generate call.
type session struct {
	doc      *design.Document
	opts     Options
	log      *zap.Logger
	assets   []Asset
	imageSeq int
}

// Generate converts the given root nodes in order and composes one HTML
// fragment. An empty selection is a no-op yielding empty output. Image export
// failures degrade locally; any other failure aborts the whole conversion.
func (g *Generator) Generate(ctx context.Context, doc *design.Document, roots []*design.Node) (*Result, error) {
	if len(roots) == 0 {
		return &Result{}, nil
	}

	runID := ""
	if id, err := uuid.NewV7(); err == nil {
		runID = id.String()
	}
	log := g.log.With(zap.String("run", runID))
	log.Debug("Conversion started",
		zap.Int("roots", len(roots)),
		zap.Stringer("images", g.opts.ImageMode),
		zap.Stringer("width", g.opts.WidthMode))

	s := &session{doc: doc, opts: g.opts, log: log}

	var frags []string
	for _, root := range roots {
		rc := renderCtx{
			avail:     root.Width,
			bg:        design.White,
			imageMode: g.opts.ImageMode,
			widthMode: g.opts.WidthMode,
			root:      true,
		}
		el, err := s.renderNode(ctx, root, rc)
		if err != nil {
			return nil, fmt.Errorf("unable to render %q: %w", root.Name, err)
		}
		if el == nil {
			continue
		}
		frag, err := serializeFragment(el)
		if err != nil {
			return nil, fmt.Errorf("unable to serialize %q: %w", root.Name, err)
		}
		frags = append(frags, frag)
	}

	log.Debug("Conversion finished", zap.Int("fragments", len(frags)), zap.Int("assets", len(s.assets)))
	return &Result{HTML: strings.Join(frags, "\n"), Assets: s.assets}, nil
}

func serializeFragment(el *etree.Element) (string, error) {
	doc := etree.NewDocument()
	doc.AddChild(el)
	return doc.WriteToString()
}
