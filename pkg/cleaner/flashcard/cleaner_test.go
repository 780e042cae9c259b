package flashcard

import (
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
)

const wrapperOpen = `<div style="line-height:1.6; font-size:16px; max-width:100%;">`

const questionMarkup = `<html><body>
<article class="questao-enunciado" ng-if="vm.questao">
  <div class="questao-enunciado-texto"><p onclick="x()">Qual opção?</p></div>
  <ul class="questao-enunciado-alternativas">
    <li>
      <div class="questao-enunciado-alternativa-opcao"><label>A</label></div>
      <div class="questao-enunciado-alternativa-texto">texto</div>
    </li>
    <li>
      <div class="questao-enunciado-alternativa-opcao"><label>B</label></div>
      <div class="questao-enunciado-alternativa-texto"><!-- vazio --><script>track()</script></div>
    </li>
  </ul>
</article>
</body></html>`

func TestNew(t *testing.T) {
	t.Run("nil config uses default", func(t *testing.T) {
		c := New(nil)
		if c.config == nil {
			t.Fatal("expected non-nil config")
		}
		if !c.config.DropDataURIImages {
			t.Error("expected DropDataURIImages to be true by default")
		}
		if c.config.MaxImageURLChars != 300 {
			t.Errorf("expected MaxImageURLChars 300, got %d", c.config.MaxImageURLChars)
		}
	})

	t.Run("custom config is used", func(t *testing.T) {
		cfg := DefaultConfig()
		cfg.Unavailable = "N/A"
		if c := New(cfg); c.config.Unavailable != "N/A" {
			t.Errorf("expected custom sentinel, got %q", c.config.Unavailable)
		}
	})
}

func TestName(t *testing.T) {
	if name := New(nil).Name(); name != "flashcard" {
		t.Errorf("expected name 'flashcard', got '%s'", name)
	}
}

func TestProcess_ShortCircuits(t *testing.T) {
	c := New(nil)

	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"empty input", "", ErrEmptyInput},
		{"whitespace input", "  \n\t ", ErrEmptyInput},
		{"sentinel passes through", UnavailableExplanation, UnavailableExplanation},
		{"comment only", "<!-- nada -->", ErrNoContainer},
		{"script only", "<script>alert(1)</script>", ErrNoContainer},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := c.Process(tt.input); got != tt.want {
				t.Errorf("got %q, want %q", got, tt.want)
			}
		})
	}
}

func TestProcess_CustomSentinel(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Unavailable = "<p>sem comentário</p>"
	c := New(cfg)

	if got := c.Process(cfg.Unavailable); got != cfg.Unavailable {
		t.Errorf("expected sentinel untouched, got %q", got)
	}

	// Only exact equality short-circuits.
	got := c.Process(" " + cfg.Unavailable)
	if !strings.HasPrefix(got, wrapperOpen) {
		t.Errorf("expected padded sentinel to be processed, got %q", got)
	}
}

func TestProcess_Question(t *testing.T) {
	got := New(nil).Process(questionMarkup)

	assertContains(t, got,
		[]string{wrapperOpen, "<p>Qual opção?</p>", "<li>A texto</li>", "<ul>", "</ul>"},
		[]string{"<li>B", "questao", "class=", "onclick", "<script", "vazio", "<label"},
	)
	if !strings.HasSuffix(got, "</div>") {
		t.Errorf("expected output to end with the wrapper, got %s", got)
	}
}

func TestProcess_QuestionWithoutAlternatives(t *testing.T) {
	markup := `<article class="questao-enunciado"><div class="questao-enunciado-texto"><p>Só o enunciado</p></div></article>`
	got := New(nil).Process(markup)

	want := wrapperOpen + "<p>Só o enunciado</p></div>"
	if got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestProcess_AlternativeWithoutLabel(t *testing.T) {
	markup := `<article class="questao-enunciado"><ul class="questao-enunciado-alternativas">` +
		`<li><div class="questao-enunciado-alternativa-texto">certo</div></li></ul></article>`
	got := New(nil).Process(markup)
	assertContains(t, got, []string{"<li> certo</li>"}, nil)
}

func TestProcess_ExplanationFallback(t *testing.T) {
	markup := `<div class="questao-complementos-comentario-conteudo-texto"><p>Gabarito: <strong>C</strong></p></div>`
	got := New(nil).Process(markup)

	want := `<div style="line-height:1.6; font-size:16px; max-width:100%;"><p>Gabarito: <strong>C</strong></p></div>`
	if got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestProcess_EmptyQuestionFallsBack(t *testing.T) {
	markup := `<article class="questao-enunciado"></article>` +
		`<div class="questao-complementos-comentario-conteudo-texto"><p>comentário</p></div>`
	result := New(nil).CleanWithStats(markup)

	if result.Source != SourceExplanation {
		t.Errorf("expected explanation source, got %q", result.Source)
	}
	assertContains(t, result.Content, []string{"<p>comentário</p>"}, nil)
}

func TestProcess_RawBodyFallback(t *testing.T) {
	result := New(nil).CleanWithStats(`<section><p>solto</p></section>`)

	if result.Outcome != OutcomeOK {
		t.Fatalf("expected ok outcome, got %q (%s)", result.Outcome, result.Content)
	}
	if result.Source != SourceBody {
		t.Errorf("expected body source, got %q", result.Source)
	}
	if want := wrapperOpen + "<p>solto</p></div>"; result.Content != want {
		t.Errorf("got %q, want %q", result.Content, want)
	}
}

func TestProcess_Math(t *testing.T) {
	c := New(nil)

	t.Run("inline", func(t *testing.T) {
		got := c.Process(`<p>Seja <script type="math/tex">x^2</script></p>`)
		assertContains(t, got, []string{`\(x^2\)`}, []string{"<script", `\[`})
	})

	t.Run("display", func(t *testing.T) {
		got := c.Process(`<p><script type="math/tex; mode=display">\sum_i a_i</script></p>`)
		assertContains(t, got, []string{`\[\sum_i a_i\]`}, []string{"<script", `\(`})
	})
}

func TestProcess_Monospace(t *testing.T) {
	markup := `<div class="questao-complementos-comentario-conteudo-texto">` +
		`<span class="texto-monospace">int a;<br>a++;</span><br><p>fim</p></div>`
	got := New(nil).Process(markup)

	assertContains(t, got,
		[]string{"<pre", "white-space: pre", "int a;\na++;</pre><p>fim</p>"},
		[]string{"<br", "texto-monospace"},
	)
}

func TestProcess_Images(t *testing.T) {
	got := New(nil).Process(`<p>a<img src="data:image/png;base64,AAAA"><img src="/fig.png" width="10" loading="lazy"></p>`)
	assertContains(t, got,
		[]string{`<img src="/fig.png" width="10"/>`},
		[]string{"data:", "loading"},
	)
}

func TestProcess_AllowListClosure(t *testing.T) {
	got := New(nil).Process(questionMarkup + noisyMarkup)

	doc, err := html.Parse(strings.NewReader(got))
	if err != nil {
		t.Fatalf("parse output: %v", err)
	}
	var body *html.Node
	var find func(*html.Node)
	find = func(n *html.Node) {
		if n.Type == html.ElementNode && n.Data == "body" {
			body = n
			return
		}
		for c := n.FirstChild; c != nil && body == nil; c = c.NextSibling {
			find(c)
		}
	}
	find(doc)
	if body == nil {
		t.Fatal("no body in parsed output")
	}
	assertAllowListClosure(t, body)
}

func TestProcess_Deterministic(t *testing.T) {
	c := New(nil)
	first := c.Process(questionMarkup)
	for i := 0; i < 3; i++ {
		if got := c.Process(questionMarkup); got != first {
			t.Fatalf("run %d differs:\n%s\n%s", i, first, got)
		}
	}
}

func TestProcess_Concurrent(t *testing.T) {
	c := New(nil)
	inputs := []string{
		questionMarkup,
		`<div class="questao-complementos-comentario-conteudo-texto"><p>Gabarito: <strong>C</strong></p></div>`,
		`<p><script type="math/tex">a+b</script></p>`,
		UnavailableExplanation,
	}
	want := make([]string, len(inputs))
	for i, in := range inputs {
		want[i] = c.Process(in)
	}

	var wg sync.WaitGroup
	errs := make(chan string, 64)
	for g := 0; g < 16; g++ {
		wg.Add(1)
		go func(g int) {
			defer wg.Done()
			i := g % len(inputs)
			if got := c.Process(inputs[i]); got != want[i] {
				errs <- got
			}
		}(g)
	}
	wg.Wait()
	close(errs)
	for got := range errs {
		t.Errorf("concurrent call produced different output: %s", got)
	}
}

func TestClean(t *testing.T) {
	out, err := New(nil).Clean("")
	if err != nil {
		t.Fatalf("expected nil error, got %v", err)
	}
	if out != ErrEmptyInput {
		t.Errorf("expected empty input string, got %q", out)
	}
}

func TestCleanWithStats(t *testing.T) {
	c := New(nil)

	t.Run("question", func(t *testing.T) {
		result := c.CleanWithStats(questionMarkup)
		if result.Outcome != OutcomeOK || result.Source != SourceQuestion {
			t.Fatalf("expected ok/question, got %q/%q", result.Outcome, result.Source)
		}
		if result.Stats.AlternativesKept != 1 || result.Stats.AlternativesDropped != 1 {
			t.Errorf("expected 1 kept and 1 dropped, got %d/%d",
				result.Stats.AlternativesKept, result.Stats.AlternativesDropped)
		}
		if result.Stats.InputBytes != len(questionMarkup) {
			t.Errorf("expected input bytes %d, got %d", len(questionMarkup), result.Stats.InputBytes)
		}
		if result.Stats.OutputBytes != len(result.Content) {
			t.Errorf("expected output bytes %d, got %d", len(result.Content), result.Stats.OutputBytes)
		}
		if result.Degraded() {
			t.Error("expected result to not be degraded")
		}
	})

	t.Run("outcomes", func(t *testing.T) {
		tests := []struct {
			input    string
			outcome  Outcome
			degraded bool
		}{
			{"", OutcomeEmptyInput, true},
			{UnavailableExplanation, OutcomeSentinel, false},
			{"<!-- nada -->", OutcomeNoContainer, true},
		}
		for _, tt := range tests {
			result := c.CleanWithStats(tt.input)
			if result.Outcome != tt.outcome {
				t.Errorf("input %q: expected outcome %q, got %q", tt.input, tt.outcome, result.Outcome)
			}
			if result.Degraded() != tt.degraded {
				t.Errorf("input %q: expected degraded=%v", tt.input, tt.degraded)
			}
			if result.Error != nil {
				t.Errorf("input %q: unexpected error %v", tt.input, result.Error)
			}
		}
	})
}

func TestQuestionHTML(t *testing.T) {
	tests := []struct {
		name string
		q    Question
		want string
	}{
		{"empty", Question{}, ""},
		{"statement only", Question{Statement: "<p>s</p>"}, "<p>s</p>"},
		{
			name: "alternatives only",
			q:    Question{Alternatives: []Alternative{{Label: "A", Body: "um"}}},
			want: "<ul>\n  <li>A um</li>\n</ul>",
		},
		{
			name: "statement and alternatives",
			q: Question{
				Statement:    "<p>s</p>",
				Alternatives: []Alternative{{Label: "A", Body: "um"}, {Label: "B", Body: "dois"}},
			},
			want: "<p>s</p>\n<ul>\n  <li>A um</li>\n  <li>B dois</li>\n</ul>",
		},
		{
			name: "missing label keeps the separator",
			q:    Question{Alternatives: []Alternative{{Body: "x"}}},
			want: "<ul>\n  <li> x</li>\n</ul>",
		},
		{
			name: "label is escaped",
			q:    Question{Alternatives: []Alternative{{Label: "<A>", Body: "x"}}},
			want: "<ul>\n  <li>&lt;A&gt; x</li>\n</ul>",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.q.HTML(); got != tt.want {
				t.Errorf("got %q, want %q", got, tt.want)
			}
			if tt.q.Empty() != (tt.want == "") {
				t.Errorf("Empty() = %v for %q", tt.q.Empty(), tt.want)
			}
		})
	}
}

func TestCleanWithStats_DeepNesting(t *testing.T) {
	tests := []struct {
		depth    int
		degraded bool
	}{
		{100, false},
		{600, true},
		{2000, true},
	}
	for _, tt := range tests {
		markup := strings.Repeat("<div>", tt.depth) + "deep" + strings.Repeat("</div>", tt.depth)
		r := New(nil).CleanWithStats(markup)

		if r.Outcome != OutcomeOK || r.Source != SourceBody {
			t.Errorf("depth %d: outcome=%s source=%s", tt.depth, r.Outcome, r.Source)
		}
		if !strings.HasPrefix(r.Content, wrapperOpen) || !strings.Contains(r.Content, "deep") {
			t.Errorf("depth %d: content lost: %.200s", tt.depth, r.Content)
		}
		if r.Stats.DegradedParse != tt.degraded {
			t.Errorf("depth %d: DegradedParse = %v, want %v", tt.depth, r.Stats.DegradedParse, tt.degraded)
		}
	}
}

func TestCleanWithStats_Fault(t *testing.T) {
	tests := []struct {
		name string
		hook func(*goquery.Document) error
	}{
		{"panic", func(*goquery.Document) error { panic("estágio quebrado") }},
		{"error", func(*goquery.Document) error { return errors.New("estágio quebrado") }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			afterLoadHook = tt.hook
			defer func() { afterLoadHook = nil }()

			r := New(nil).CleanWithStats(questionMarkup)
			if !strings.HasPrefix(r.Content, "Ocorreu um erro inesperado:") || !strings.Contains(r.Content, "estágio quebrado") {
				t.Errorf("unexpected content %q", r.Content)
			}
			if r.Outcome != OutcomeFault || r.Source != SourceNone {
				t.Errorf("outcome=%s source=%s", r.Outcome, r.Source)
			}
			if r.Error == nil {
				t.Error("expected Result.Error to be set")
			}
			if !r.Degraded() {
				t.Error("expected a fault to be degraded")
			}

			out, err := New(nil).Clean(questionMarkup)
			if err != nil {
				t.Errorf("Clean must not return an error, got %v", err)
			}
			if !strings.HasPrefix(out, "Ocorreu um erro inesperado:") {
				t.Errorf("unexpected Clean output %q", out)
			}
		})
	}
}

func TestProcess_NestedParagraphSplit(t *testing.T) {
	markup := `<div class="questao-complementos-comentario-conteudo-texto">` +
		`<p>a<button><p>b</p></button></p></div>`
	got := New(nil).Process(markup)

	want := wrapperOpen + `<p>a</p><p>b</p></div>`
	if got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestProcess_BlankParagraphsOnlyKept(t *testing.T) {
	got := New(nil).Process(`<p> </p>`)
	if got == ErrNoContainer || !strings.HasPrefix(got, wrapperOpen) {
		t.Errorf("expected the blank body to be wrapped, got %q", got)
	}
}
