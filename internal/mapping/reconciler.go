package mapping

import (
	"context"
	"log/slog"
	"sync"

	"github.com/lipeng19940807-debug/ai-settlement-assistant/internal/oracle"
	"github.com/lipeng19940807-debug/ai-settlement-assistant/internal/schema"
)

// Matcher is the slice of the oracle surface the reconciler needs.
type Matcher interface {
	MatchFields(ctx context.Context, source []schema.SourceField, target []schema.TargetField) ([]oracle.MatchResult, error)
}

// Reconciler keeps the mapping collection exactly matching the live target
// field set. It is the single writer of the collection; manual overrides and
// rule edits are routed through it so the one-mapping-per-target invariant
// holds at every quiescent point.
//
// The matcher call is the only suspension point. Fields are marked processed
// before dispatch, so schema edits arriving faster than oracle responses
// cannot trigger duplicate in-flight calls for the same field. Responses for
// fields deleted while the call was in flight are discarded by the liveness
// check at merge time; no cancellation is needed.
type Reconciler struct {
	mu        sync.Mutex
	registry  *schema.Registry
	matcher   Matcher
	logger    *slog.Logger
	processed map[string]struct{}
	mappings  map[string]FieldMapping
}

// NewReconciler creates a reconciler bound to a registry and a matcher.
func NewReconciler(registry *schema.Registry, matcher Matcher, logger *slog.Logger) *Reconciler {
	return &Reconciler{
		registry:  registry,
		matcher:   matcher,
		logger:    logger,
		processed: make(map[string]struct{}),
		mappings:  make(map[string]FieldMapping),
	}
}

// Reconcile runs one reconciliation pass. Call it after every change to the
// target field set. Oracle unavailability is not an error: the affected
// batch degrades to unmapped entries and the pass still succeeds.
func (r *Reconciler) Reconcile(ctx context.Context) {
	batch, sourceView := r.prepare()
	if len(batch) == 0 {
		return
	}

	results, err := r.matcher.MatchFields(ctx, sourceView, batch)

	r.mu.Lock()
	defer r.mu.Unlock()

	var proposed []FieldMapping
	if err != nil {
		r.logger.Warn("field matching unavailable, falling back to unmapped entries",
			"fields", len(batch), "error", err)
		for _, tf := range batch {
			proposed = append(proposed, FieldMapping{TargetFieldID: tf.ID})
		}
	} else {
		proposed = resolveResults(results, sourceView)
	}
	r.mergeLocked(proposed)
}

// prepare purges stale state, picks the batch to map and marks it processed,
// all under the lock, then releases it for the oracle call.
func (r *Reconciler) prepare() ([]schema.TargetField, []schema.SourceField) {
	r.mu.Lock()
	defer r.mu.Unlock()

	live := r.registry.TargetFields()
	liveIDs := make(map[string]struct{}, len(live))
	for _, tf := range live {
		liveIDs[tf.ID] = struct{}{}
	}

	// Stale entries and markers go together: if a field with the same id is
	// ever re-added it must be treated as brand-new.
	for id := range r.mappings {
		if _, ok := liveIDs[id]; !ok {
			delete(r.mappings, id)
		}
	}
	for id := range r.processed {
		if _, ok := liveIDs[id]; !ok {
			delete(r.processed, id)
		}
	}

	var batch []schema.TargetField
	for _, tf := range live {
		if _, done := r.processed[tf.ID]; done {
			continue
		}
		if _, mapped := r.mappings[tf.ID]; mapped {
			continue
		}
		batch = append(batch, tf)
	}

	if len(batch) == 0 {
		// Initial pass: nothing mapped, nothing in flight, but live fields
		// exist (e.g. a template was just applied over a fresh collection).
		if len(r.mappings) == 0 && len(r.processed) == 0 && len(live) > 0 {
			batch = live
		} else {
			return nil, nil
		}
	}

	// Mark before dispatch, not after the oracle returns.
	for _, tf := range batch {
		r.processed[tf.ID] = struct{}{}
	}

	return batch, r.registry.SourceFieldsView()
}

// resolveResults attaches origin metadata from the source-field view to the
// oracle's raw id pairs.
func resolveResults(results []oracle.MatchResult, view []schema.SourceField) []FieldMapping {
	byID := make(map[string]schema.SourceField, len(view))
	for _, sf := range view {
		byID[sf.UniqueID] = sf
	}

	out := make([]FieldMapping, 0, len(results))
	for _, res := range results {
		m := FieldMapping{
			TargetFieldID:   res.TargetFieldID,
			MatchConfidence: res.MatchConfidence,
		}
		if sf, ok := byID[res.SourceFieldID]; ok {
			m.SourceFieldID = sf.UniqueID
			m.SourceFieldName = sf.Name
			m.SourceFileName = sf.OriginFileName
		}
		out = append(out, m)
	}
	return out
}

// mergeLocked rebuilds the collection: existing entries for still-live
// targets always win; proposed entries fill only the gaps. The liveness set
// is recomputed here, so a response that resolved after its field was
// deleted merges to nothing. Caller holds the lock.
func (r *Reconciler) mergeLocked(proposed []FieldMapping) {
	liveIDs := make(map[string]struct{})
	for _, tf := range r.registry.TargetFields() {
		liveIDs[tf.ID] = struct{}{}
	}

	next := make(map[string]FieldMapping, len(liveIDs))
	for id, m := range r.mappings {
		if _, ok := liveIDs[id]; ok {
			next[id] = m
		}
	}
	for _, m := range proposed {
		if _, ok := liveIDs[m.TargetFieldID]; !ok {
			continue
		}
		if _, exists := next[m.TargetFieldID]; exists {
			continue
		}
		next[m.TargetFieldID] = m
	}
	r.mappings = next
}

// SelectSource manually associates (or, with a nil source, clears) the
// mapping for a target field. Manual choices carry confidence 100, explicit
// clears 0, and bypass the oracle entirely: later schema churn on other
// fields never touches an entry written here. Rule fields are preserved.
func (r *Reconciler) SelectSource(targetFieldID string, sf *schema.SourceField) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, live := r.registry.TargetField(targetFieldID); !live {
		return false
	}

	m := r.mappings[targetFieldID]
	m.TargetFieldID = targetFieldID
	if sf == nil {
		m.SourceFieldID = ""
		m.SourceFieldName = ""
		m.SourceFileName = ""
		m.MatchConfidence = 0
	} else {
		m.SourceFieldID = sf.UniqueID
		m.SourceFieldName = sf.Name
		m.SourceFileName = sf.OriginFileName
		m.MatchConfidence = 100
	}
	r.mappings[targetFieldID] = m
	r.processed[targetFieldID] = struct{}{}
	return true
}

// SetRule attaches a rule description and its generated code to a mapping.
// The source field association and confidence are left untouched.
func (r *Reconciler) SetRule(targetFieldID, description, code string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	m, ok := r.mappings[targetFieldID]
	if !ok {
		if _, live := r.registry.TargetField(targetFieldID); !live {
			return false
		}
		m = FieldMapping{TargetFieldID: targetFieldID}
		r.processed[targetFieldID] = struct{}{}
	}
	m.ProcessingRule = description
	m.GeneratedCode = code
	r.mappings[targetFieldID] = m
	return true
}

// Mappings returns the collection ordered by the current target field list.
// The returned slice is a snapshot; the batch transformer reads one for the
// whole duration of a run.
func (r *Reconciler) Mappings() []FieldMapping {
	r.mu.Lock()
	defer r.mu.Unlock()

	var out []FieldMapping
	for _, tf := range r.registry.TargetFields() {
		if m, ok := r.mappings[tf.ID]; ok {
			out = append(out, m)
		}
	}
	return out
}

// Replace swaps in a complete mapping collection, e.g. when a saved template
// is applied. Every target in the collection is marked processed so the next
// pass does not re-dispatch them.
func (r *Reconciler) Replace(mappings []FieldMapping) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.mappings = make(map[string]FieldMapping, len(mappings))
	r.processed = make(map[string]struct{}, len(mappings))
	for _, m := range mappings {
		r.mappings[m.TargetFieldID] = m
		r.processed[m.TargetFieldID] = struct{}{}
	}
}
