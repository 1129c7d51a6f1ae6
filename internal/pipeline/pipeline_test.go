package pipeline

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/printdex/printdex/internal/card"
	"github.com/printdex/printdex/internal/config"
	"github.com/printdex/printdex/internal/datacache"
	"github.com/printdex/printdex/internal/imagecache"
	"github.com/printdex/printdex/internal/layout"
	"github.com/printdex/printdex/internal/pdfout"
	"github.com/printdex/printdex/internal/pokeapi"
	"github.com/printdex/printdex/internal/pokedex"
)

type fixture struct {
	slug  string
	en    string
	zht   string
	types []string
}

var fixtures = map[int]fixture{
	1: {"bulbasaur", "Bulbasaur", "妙蛙種子", []string{"grass", "poison"}},
	4: {"charmander", "Charmander", "小火龍", []string{"fire"}},
	7: {"squirtle", "Squirtle", "傑尼龜", []string{"water"}},
}

// fakeUpstream serves PokeAPI lookups and artwork for the fixtures, with
// per-entity switches to simulate missing data.
type fakeUpstream struct {
	noArtwork   map[int]bool
	noSpecies   map[int]bool
	failPokemon map[int]bool
}

func (f *fakeUpstream) handler(t *testing.T) http.Handler {
	t.Helper()
	mux := http.NewServeMux()

	mux.HandleFunc("/api/v2/pokemon-species/", func(w http.ResponseWriter, r *http.Request) {
		id := trailingID(r.URL.Path)
		fx, ok := fixtures[id]
		if !ok || f.noSpecies[id] {
			http.NotFound(w, r)
			return
		}
		fmt.Fprintf(w, `{"id":%d,"name":%q,"names":[
			{"name":%q,"language":{"name":"en"}},
			{"name":%q,"language":{"name":"zh-Hant"}}
		]}`, id, fx.slug, fx.en, fx.zht)
	})

	mux.HandleFunc("/api/v2/pokemon/", func(w http.ResponseWriter, r *http.Request) {
		id := trailingID(r.URL.Path)
		fx, ok := fixtures[id]
		if !ok {
			http.NotFound(w, r)
			return
		}
		if f.failPokemon[id] {
			http.Error(w, "upstream sad", http.StatusInternalServerError)
			return
		}
		slots := make([]string, len(fx.types))
		for i, typ := range fx.types {
			slots[i] = fmt.Sprintf(`{"slot":%d,"type":{"name":%q}}`, i+1, typ)
		}
		fmt.Fprintf(w, `{"id":%d,"name":%q,"types":[%s]}`, id, fx.slug, strings.Join(slots, ","))
	})

	mux.HandleFunc("/sprites/", func(w http.ResponseWriter, r *http.Request) {
		id := trailingID(r.URL.Path)
		if _, ok := fixtures[id]; !ok || f.noArtwork[id] {
			http.NotFound(w, r)
			return
		}
		w.Write(pngBytes(t))
	})

	return mux
}

func trailingID(path string) int {
	base := strings.TrimSuffix(filepath.Base(strings.TrimSuffix(path, "/")), ".png")
	id, _ := strconv.Atoi(base)
	return id
}

func pngBytes(t *testing.T) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 64, 64))
	for y := 0; y < 64; y++ {
		for x := 0; x < 64; x++ {
			img.Set(x, y, color.RGBA{200, 40, 40, 255})
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}

func newTestPipeline(t *testing.T, upstream *fakeUpstream) *Pipeline {
	t.Helper()
	server := httptest.NewServer(upstream.handler(t))
	t.Cleanup(server.Close)

	cfg := config.Defaults()
	client := pokeapi.NewClient(server.URL+"/api/v2", datacache.New(t.TempDir(), time.Hour), time.Second, 3, 0)
	client.Backoff = time.Millisecond
	images := imagecache.New(t.TempDir(), server.URL+"/sprites", time.Second, 3)
	images.Backoff = time.Millisecond

	fonts, err := card.LoadFonts(nil)
	if err != nil {
		t.Fatalf("loading fonts: %v", err)
	}

	return &Pipeline{
		Client:      client,
		Images:      images,
		Renderer:    card.NewRenderer(card.GeometryFor(cfg.Card, 150), fonts),
		Grid:        layout.NewGrid(cfg.Page, cfg.Card),
		Emitter:     &pdfout.Emitter{},
		DPI:         150,
		Concurrency: 3,
	}
}

func baseRequest(t *testing.T) Request {
	t.Helper()
	return Request{
		IDs:        []int{1, 4, 7},
		Languages:  []pokedex.Language{pokedex.English, pokedex.TraditionalChinese},
		Style:      pokedex.StyleOfficial,
		OutputPath: filepath.Join(t.TempDir(), "cards.pdf"),
	}
}

func TestRunGeneratesPDF(t *testing.T) {
	p := newTestPipeline(t, &fakeUpstream{})
	req := baseRequest(t)

	rep, err := p.Run(context.Background(), req)
	if err != nil {
		t.Fatalf("Run() returned error: %v", err)
	}
	if rep.Succeeded != 3 || rep.Skipped != 0 || rep.Failed != 0 {
		t.Errorf("counts = %d/%d/%d, want 3/0/0", rep.Succeeded, rep.Skipped, rep.Failed)
	}
	if rep.Pages != 1 || rep.Cards != 3 {
		t.Errorf("pages=%d cards=%d, want 1 and 3", rep.Pages, rep.Cards)
	}

	wantNames := []string{"Bulbasaur", "Charmander", "Squirtle"}
	for i, want := range wantNames {
		res := rep.Results[i]
		if res.ID != req.IDs[i] {
			t.Errorf("result %d is entity %d, want %d", i, res.ID, req.IDs[i])
		}
		if res.Status != StatusOK || res.Name != want {
			t.Errorf("result %d = %s %q, want ok %q", i, res.Status, res.Name, want)
		}
	}

	data, err := os.ReadFile(req.OutputPath)
	if err != nil {
		t.Fatalf("reading output: %v", err)
	}
	if !strings.HasPrefix(string(data), "%PDF-") {
		t.Error("output is not a pdf")
	}
	if rep.Bytes != int64(len(data)) {
		t.Errorf("report bytes = %d, want %d", rep.Bytes, len(data))
	}
}

func TestRunSkipsEntitiesWithoutArtwork(t *testing.T) {
	p := newTestPipeline(t, &fakeUpstream{noArtwork: map[int]bool{4: true}})
	req := baseRequest(t)

	rep, err := p.Run(context.Background(), req)
	if err != nil {
		t.Fatalf("Run() returned error: %v", err)
	}
	if rep.Succeeded != 2 || rep.Skipped != 1 || rep.Failed != 0 {
		t.Errorf("counts = %d/%d/%d, want 2/1/0", rep.Succeeded, rep.Skipped, rep.Failed)
	}
	if rep.Results[1].Status != StatusSkipped {
		t.Errorf("entity 4 status = %s, want skipped", rep.Results[1].Status)
	}
	if rep.Results[1].Err == nil {
		t.Error("skipped entity has no reason recorded")
	}
	if rep.Cards != 2 {
		t.Errorf("cards = %d, want 2", rep.Cards)
	}
}

func TestRunFailsWhenNothingProduced(t *testing.T) {
	p := newTestPipeline(t, &fakeUpstream{noArtwork: map[int]bool{1: true, 4: true, 7: true}})
	req := baseRequest(t)

	rep, err := p.Run(context.Background(), req)
	if err == nil {
		t.Fatal("Run() succeeded with zero cards")
	}
	if rep == nil || rep.Skipped != 3 {
		t.Fatalf("report = %+v, want 3 skipped", rep)
	}
	if _, statErr := os.Stat(req.OutputPath); !os.IsNotExist(statErr) {
		t.Error("Run() wrote an output file despite producing no cards")
	}
}

func TestRunUsesFallbackNameWhenSpeciesMissing(t *testing.T) {
	p := newTestPipeline(t, &fakeUpstream{noSpecies: map[int]bool{7: true}})
	req := baseRequest(t)

	rep, err := p.Run(context.Background(), req)
	if err != nil {
		t.Fatalf("Run() returned error: %v", err)
	}
	res := rep.Results[2]
	if res.Status != StatusOK {
		t.Fatalf("entity 7 status = %s (%v), want ok", res.Status, res.Err)
	}
	// Display name falls back to the pokemon endpoint's slug.
	if res.Name != "Squirtle" {
		t.Errorf("entity 7 name = %q, want Squirtle", res.Name)
	}
	if res.Card == nil {
		t.Error("entity 7 produced no card image")
	}
}

func TestRunIsolatesEntityFailures(t *testing.T) {
	p := newTestPipeline(t, &fakeUpstream{failPokemon: map[int]bool{4: true}})
	req := baseRequest(t)

	rep, err := p.Run(context.Background(), req)
	if err != nil {
		t.Fatalf("Run() returned error: %v", err)
	}
	if rep.Succeeded != 2 || rep.Failed != 1 {
		t.Errorf("counts = %d succeeded %d failed, want 2 and 1", rep.Succeeded, rep.Failed)
	}
	if rep.Results[1].Status != StatusFailed || rep.Results[1].Err == nil {
		t.Errorf("entity 4 = %s %v, want failed with error", rep.Results[1].Status, rep.Results[1].Err)
	}
}

func TestRunValidatesRequest(t *testing.T) {
	p := newTestPipeline(t, &fakeUpstream{})
	base := baseRequest(t)

	tests := []struct {
		name   string
		mutate func(*Request)
	}{
		{"no ids", func(r *Request) { r.IDs = nil }},
		{"no languages", func(r *Request) { r.Languages = nil }},
		{"no output", func(r *Request) { r.OutputPath = "" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := base
			tt.mutate(&req)
			if _, err := p.Run(context.Background(), req); err == nil {
				t.Error("Run() accepted invalid request")
			}
		})
	}
}
