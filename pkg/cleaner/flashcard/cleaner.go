package flashcard

import (
	"fmt"
	"time"

	"github.com/PuerkitoBio/goquery"
)

// wrapperStyle is applied to the single container of every cleaned field.
const wrapperStyle = "line-height:1.6; font-size:16px; max-width:100%;"

// Cleaner runs the flashcard pipeline. It holds only read-only
// configuration, so one Cleaner may be shared across goroutines.
// It implements the cleaner.Cleaner interface.
type Cleaner struct {
	config *Config
}

// New creates a new Cleaner with the given configuration.
// If config is nil, DefaultConfig() is used.
func New(config *Config) *Cleaner {
	if config == nil {
		config = DefaultConfig()
	}
	return &Cleaner{config: config}
}

// Name returns the cleaner name for logging.
func (c *Cleaner) Name() string {
	return "flashcard"
}

// Clean implements cleaner.Cleaner. The error is always nil: failures are
// encoded in the returned content.
func (c *Cleaner) Clean(html string) (string, error) {
	return c.Process(html), nil
}

// Process converts one captured fragment into flashcard field content.
func (c *Cleaner) Process(markup string) string {
	return c.CleanWithStats(markup).Content
}

// pass carries the configuration and counters of one invocation.
type pass struct {
	cfg   *Config
	stats *Stats
}

// CleanWithStats runs the pipeline and reports what it did.
func (c *Cleaner) CleanWithStats(markup string) (result *Result) {
	startTime := time.Now()
	result = &Result{Stats: NewStats()}
	result.Stats.InputBytes = len(markup)
	defer func() {
		result.Stats.OutputBytes = len(result.Content)
		result.Stats.TotalDuration = time.Since(startTime)
	}()

	if markup == c.config.Unavailable {
		result.Content = markup
		result.Outcome = OutcomeSentinel
		return result
	}
	if isBlank(markup) {
		result.Content = ErrEmptyInput
		result.Outcome = OutcomeEmptyInput
		return result
	}

	defer func() {
		if r := recover(); r != nil {
			result.Error = fmt.Errorf("flashcard pipeline: %v", r)
			result.Content = fmt.Sprintf(unexpectedFaultFormat, r)
			result.Outcome = OutcomeFault
			result.Source = SourceNone
		}
	}()

	p := &pass{cfg: c.config, stats: result.Stats}

	parseStart := time.Now()
	doc, degraded := loadDocument(markup)
	result.Stats.DegradedParse = degraded
	result.Stats.ParseDuration = time.Since(parseStart)

	transformStart := time.Now()
	content, source, err := p.run(doc)
	result.Stats.TransformDuration = time.Since(transformStart)

	switch {
	case err != nil:
		result.Error = err
		result.Content = fmt.Sprintf(unexpectedFaultFormat, err)
		result.Outcome = OutcomeFault
	case content == "":
		result.Content = ErrNoContainer
		result.Outcome = OutcomeNoContainer
	default:
		result.Content = content
		result.Outcome = OutcomeOK
		result.Source = source
	}
	return result
}

// afterLoadHook, when set, runs on every loaded document before the first
// stage. Tests use it to inject faults.
var afterLoadHook func(*goquery.Document) error

// run executes Load -> MathNormalize -> MonospaceReconstruct -> Extract ->
// Wrap on a loaded document.
func (p *pass) run(doc *goquery.Document) (string, Source, error) {
	if doc == nil {
		return "", SourceNone, nil
	}
	if afterLoadHook != nil {
		if err := afterLoadHook(doc); err != nil {
			return "", SourceNone, err
		}
	}
	p.normalizeMath(doc.Selection)
	p.rebuildMonospace(doc.Selection)

	fragment, source, err := p.extract(doc.Selection)
	if err != nil || fragment == "" {
		return "", SourceNone, err
	}

	wrapped, err := p.wrap(fragment)
	if err != nil || wrapped == "" {
		return "", SourceNone, err
	}
	return wrapped, source, nil
}

// wrap cleans the extracted fragment once more and places it inside the
// styled container. An empty result means nothing survived.
func (p *pass) wrap(fragment string) (string, error) {
	root := parseFragment(fragment)
	p.normalizeMath(root)
	p.stripNoise(root)
	p.dropEmptyParagraphs(root)

	inner, err := renderChildren(root.Nodes[0], false)
	if err != nil || inner == "" {
		return "", err
	}
	return fmt.Sprintf(`<div style="%s">%s</div>`, wrapperStyle, inner), nil
}
