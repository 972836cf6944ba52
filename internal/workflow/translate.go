package workflow

import (
	"context"
	"errors"
	"unicode/utf8"

	"github.com/Jjjmaes/AIT-sub001/internal/diag"
	"github.com/Jjjmaes/AIT-sub001/internal/domain"
	"github.com/Jjjmaes/AIT-sub001/internal/memory"
	"github.com/Jjjmaes/AIT-sub001/internal/translator"
)

// TranslateSegment translates one segment. An exact translation-memory match
// is used as is; otherwise the external translator is called. A translator
// failure leaves the segment in translation_failed with the error stored and
// is returned as a ProviderError. It is never retried here.
func (e *Engine) TranslateSegment(ctx context.Context, segmentID, actorID int64) (*domain.Segment, error) {
	_, p, err := e.load(ctx, segmentID)
	if err != nil {
		return nil, err
	}
	if err := e.access.Require(ctx, p, actorID, domain.RoleTranslator); err != nil {
		return nil, err
	}
	return e.translate(ctx, p, segmentID)
}

func (e *Engine) translate(ctx context.Context, p *domain.Project, segmentID int64) (*domain.Segment, error) {
	seg, err := e.claim(ctx, OpTranslate, segmentID, map[string]any{"error_message": nil}, nil)
	if err != nil {
		return nil, err
	}
	seg.Status = domain.StatusTranslating
	log := e.log.With("segment_id", seg.ID, "file_id", seg.FileID)

	if text, ok := e.exactMatch(ctx, p, seg); ok {
		seg.TranslatedText = &text
		seg.TranslationMeta = domain.TranslationMeta{
			Origin:     "tm",
			Length:     utf8.RuneCountInString(text),
			MatchScore: memory.Exact,
		}
		seg.Status = domain.StatusTranslatedTM
		log.Debug("translated from memory")
	} else {
		neighbours, terms := e.contextFor(ctx, seg)
		res, err := e.translator.Translate(ctx, translator.Request{
			Text:         seg.SourceText,
			SourceLang:   p.SourceLang,
			TargetLang:   p.TargetLang,
			Context:      neighbours,
			Terms:        terms,
			Domain:       p.Domain,
			Instructions: p.Instructions,
		})
		if err != nil {
			perr := providerError(e.translator.Name(), err)
			log.Warn("translation failed", diag.Err(perr))
			seg.Status = domain.StatusTranslationFailed
			seg.SetError(perr.Error())
			if cerr := e.commit(ctx, seg, domain.StatusTranslating); cerr != nil {
				return nil, errors.Join(perr, cerr)
			}
			e.refresh(ctx, seg.FileID)
			return nil, perr
		}
		text := res.TranslatedText
		seg.TranslatedText = &text
		seg.TranslationMeta = domain.TranslationMeta{
			Origin:     "ai",
			Model:      res.Model,
			TokenCount: res.TokenCount,
			LatencyMS:  res.Latency.Milliseconds(),
			Length:     utf8.RuneCountInString(text),
		}
		seg.Status = domain.StatusTranslated
		log.Debug("translated", "model", res.Model, "tokens", res.TokenCount, "latency", res.Latency)
	}

	seg.FinalText = nil
	seg.QualityScore = nil
	seg.SetError("")
	if err := e.commit(ctx, seg, domain.StatusTranslating); err != nil {
		return nil, err
	}
	e.refresh(ctx, seg.FileID)
	return seg, nil
}

// exactMatch returns the translation-memory text when the best match is
// authoritative. Lookup failures are logged and fall through to the
// translator.
func (e *Engine) exactMatch(ctx context.Context, p *domain.Project, seg *domain.Segment) (string, bool) {
	if e.matcher == nil {
		return "", false
	}
	matches, err := e.matcher.FindMatches(ctx, seg.SourceText, p.SourceLang, p.TargetLang, p.ID)
	if err != nil {
		e.log.Warn("translation memory lookup failed", "segment_id", seg.ID, diag.Err(err))
		return "", false
	}
	if len(matches) == 0 || matches[0].Score != memory.Exact {
		if len(matches) > 0 {
			e.log.Debug("fuzzy memory match ignored", "segment_id", seg.ID, "score", matches[0].Score)
		}
		return "", false
	}
	return matches[0].TargetText, true
}
