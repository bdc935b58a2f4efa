package contracts

import (
	"sort"
	"strings"
)

// Tag is a label from the closed journal tag taxonomy
// ⭐ SSOT: 태그 분류 체계는 여기서만 정의 (Normalizer 경계에서 검증)
type Tag string

// Process tags (실행 규율)
const (
	TagNoStopLoss        Tag = "no-stop-loss"
	TagStopLossUsed      Tag = "stop-loss-used"
	TagStrategyViolation Tag = "strategy-violation"
	TagGaveBackProfits   Tag = "gave-back-profits"
	TagConfirmed         Tag = "confirmed"
	TagPlanFollowed      Tag = "plan-followed"
)

// Emotion tags (감정 상태)
const (
	TagAngry         Tag = "angry"
	TagFrustrated    Tag = "frustrated"
	TagAnxious       Tag = "anxious"
	TagStressed      Tag = "stressed"
	TagEmotional     Tag = "emotional"
	TagImpulsive     Tag = "impulsive"
	TagFearful       Tag = "fearful"
	TagGreedy        Tag = "greedy"
	TagRevenge       Tag = "revenge"
	TagOverconfident Tag = "overconfident"
	TagCalm          Tag = "calm"
	TagConfident     Tag = "confident"
)

// TagUnclassified marks legacy labels outside the taxonomy
const TagUnclassified Tag = "unclassified"

var knownTags = map[Tag]struct{}{
	TagNoStopLoss: {}, TagStopLossUsed: {}, TagStrategyViolation: {}, TagGaveBackProfits: {},
	TagConfirmed: {}, TagPlanFollowed: {},
	TagAngry: {}, TagFrustrated: {}, TagAnxious: {}, TagStressed: {}, TagEmotional: {},
	TagImpulsive: {}, TagFearful: {}, TagGreedy: {}, TagRevenge: {}, TagOverconfident: {},
	TagCalm: {}, TagConfident: {},
}

// tagAliases maps legacy free-text labels onto canonical tags
var tagAliases = map[string]Tag{
	"no-stop":              TagNoStopLoss,
	"no-sl":                TagNoStopLoss,
	"without-stop-loss":    TagNoStopLoss,
	"stop-loss":            TagStopLossUsed,
	"sl-used":              TagStopLossUsed,
	"used-stop-loss":       TagStopLossUsed,
	"rule-break":           TagStrategyViolation,
	"broke-rules":          TagStrategyViolation,
	"off-plan":             TagStrategyViolation,
	"gave-back":            TagGaveBackProfits,
	"gave-back-profit":     TagGaveBackProfits,
	"given-back-profits":   TagGaveBackProfits,
	"confirmation":         TagConfirmed,
	"setup-confirmed":      TagConfirmed,
	"followed-plan":        TagPlanFollowed,
	"anger":                TagAngry,
	"frustration":          TagFrustrated,
	"anxiety":              TagAnxious,
	"stress":               TagStressed,
	"fear":                 TagFearful,
	"scared":               TagFearful,
	"hesitant":             TagFearful,
	"greed":                TagGreedy,
	"fomo":                 TagGreedy,
	"revenge-trading":      TagRevenge,
	"revenge-trade":        TagRevenge,
	"overconfidence":       TagOverconfident,
	"over-confident":       TagOverconfident,
	"cocky":                TagOverconfident,
	"disciplined":          TagCalm,
	"patient":              TagCalm,
}

// ParseTag maps a raw label onto the taxonomy.
// Returns (TagUnclassified, false) for labels the taxonomy does not know.
func ParseTag(raw string) (Tag, bool) {
	key := canonicalTagKey(raw)
	if key == "" {
		return TagUnclassified, false
	}
	if _, ok := knownTags[Tag(key)]; ok {
		return Tag(key), true
	}
	if tag, ok := tagAliases[key]; ok {
		return tag, true
	}
	return TagUnclassified, false
}

func canonicalTagKey(raw string) string {
	s := strings.ToLower(strings.TrimSpace(raw))
	s = strings.NewReplacer("_", "-", " ", "-").Replace(s)
	for strings.Contains(s, "--") {
		s = strings.ReplaceAll(s, "--", "-")
	}
	return strings.Trim(s, "-")
}

// ============================================================
// Tag categories
// ============================================================

// IsNegativeEmotion reports angry/frustrated/anxious/stressed
func (t Tag) IsNegativeEmotion() bool {
	switch t {
	case TagAngry, TagFrustrated, TagAnxious, TagStressed:
		return true
	}
	return false
}

// IsGenericEmotional reports the catch-all emotional/impulsive tags
func (t Tag) IsGenericEmotional() bool {
	return t == TagEmotional || t == TagImpulsive
}

// IsFearRelated reports fear-family tags
func (t Tag) IsFearRelated() bool { return t == TagFearful }

// IsGreedRelated reports greed-family tags
func (t Tag) IsGreedRelated() bool { return t == TagGreedy }

// IsRevengeRelated reports revenge-family tags
func (t Tag) IsRevengeRelated() bool { return t == TagRevenge }

// IsOverconfidenceRelated reports overconfidence-family tags
func (t Tag) IsOverconfidenceRelated() bool { return t == TagOverconfident }

// ============================================================
// TagSet
// ============================================================

// TagSet is a sorted, duplicate-free list of tags
type TagSet []Tag

// NewTagSet sorts and de-duplicates tags
func NewTagSet(tags ...Tag) TagSet {
	if len(tags) == 0 {
		return TagSet{}
	}
	seen := make(map[Tag]struct{}, len(tags))
	out := make(TagSet, 0, len(tags))
	for _, tag := range tags {
		if _, ok := seen[tag]; ok {
			continue
		}
		seen[tag] = struct{}{}
		out = append(out, tag)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// Has reports whether tag is in the set
func (s TagSet) Has(tag Tag) bool {
	for _, t := range s {
		if t == tag {
			return true
		}
	}
	return false
}

// Any reports whether any tag satisfies pred
func (s TagSet) Any(pred func(Tag) bool) bool {
	for _, t := range s {
		if pred(t) {
			return true
		}
	}
	return false
}
