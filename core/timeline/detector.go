package timeline

import (
	"context"
	"encoding/hex"
	"fmt"
	"strings"
	"time"

	"golang.org/x/crypto/blake2b"
	"golang.org/x/net/html"

	"github.com/trezcool/studentsync/core"
)

type (
	// Extractor asks a text model for candidate events found in text.
	Extractor interface {
		Extract(ctx context.Context, text string, ref time.Time) ([]CandidateEvent, error)
		SchemaVersion() string
	}

	// Cache stores normalized detections by text fingerprint.
	Cache interface {
		Get(ctx context.Context, fingerprint string) ([]CombinedItem, bool, error)
		Put(ctx context.Context, fingerprint string, items []CombinedItem) error
	}

	// DetectorMetrics receives cache outcomes. Optional.
	DetectorMetrics interface {
		CacheLookup(hit bool)
	}
)

const fingerprintPrefix = "fp1-"

// Fingerprint derives the cache key for text extracted with the given schema version.
func Fingerprint(schema, text string) string {
	h, _ := blake2b.New256(nil)
	_, _ = h.Write([]byte(schema))
	_, _ = h.Write([]byte{0})
	_, _ = h.Write([]byte(text))
	return fingerprintPrefix + hex.EncodeToString(h.Sum(nil))
}

// Detector glues cleanup, cache, extraction and normalization together.
// It never fails: every error is logged and degrades to no detections.
type Detector struct {
	extractor  Extractor
	cache      Cache
	normalizer Normalizer
	logger     core.Logger
	metrics    DetectorMetrics
}

func NewDetector(extractor Extractor, cache Cache, normalizer Normalizer, logger core.Logger, metrics ...DetectorMetrics) *Detector {
	d := &Detector{
		extractor:  extractor,
		cache:      cache,
		normalizer: normalizer,
		logger:     logger,
	}
	if len(metrics) > 0 {
		d.metrics = metrics[0]
	}
	return d
}

func (d *Detector) Normalizer() Normalizer { return d.normalizer }

// Detect returns the normalized events found in text, relative to ref.
func (d *Detector) Detect(ctx context.Context, text string, ref time.Time) []CombinedItem {
	text = PlainText(text)
	if text == "" {
		return nil
	}

	fp := Fingerprint(d.extractor.SchemaVersion(), text)
	if d.cache != nil {
		items, ok, err := d.cache.Get(ctx, fp)
		if err != nil {
			d.logger.Warn(fmt.Sprintf("reading detection cache: %v", err), err)
		}
		if d.metrics != nil {
			d.metrics.CacheLookup(ok)
		}
		if ok {
			return items
		}
	}

	candidates, err := d.extractor.Extract(ctx, text, ref)
	if err != nil {
		d.logger.Warn(fmt.Sprintf("extracting events: %v", err), err)
		return nil
	}

	items := make([]CombinedItem, 0, len(candidates))
	for _, c := range candidates {
		if item, ok := d.normalizer.Normalize(c); ok {
			items = append(items, item)
		}
	}

	if len(items) > 0 && d.cache != nil {
		if err := d.cache.Put(ctx, fp, items); err != nil {
			d.logger.Warn(fmt.Sprintf("writing detection cache: %v", err), err)
		}
	}
	return items
}

// PlainText strips markup from classroom text and collapses whitespace.
func PlainText(s string) string {
	if !strings.ContainsAny(s, "<&") {
		return strings.Join(strings.Fields(s), " ")
	}

	var b strings.Builder
	z := html.NewTokenizer(strings.NewReader(s))
	for {
		switch z.Next() {
		case html.ErrorToken:
			return strings.Join(strings.Fields(b.String()), " ")
		case html.TextToken:
			b.Write(z.Text())
			b.WriteByte(' ')
		case html.StartTagToken, html.SelfClosingTagToken, html.EndTagToken:
			if name, _ := z.TagName(); string(name) == "br" || string(name) == "p" || string(name) == "li" {
				b.WriteByte(' ')
			}
		}
	}
}
