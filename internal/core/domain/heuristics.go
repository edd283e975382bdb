package domain

// This file is the single home for every hand-tuned vocabulary and threshold
// used by the profile analyzer and the prompt synthesizer. Keeping them in
// one table makes each threshold independently testable.

// Tone bucket names.
const (
	ToneFormal     = "formal"
	ToneCasual     = "casual"
	ToneAnalytical = "analytical"
	TonePractical  = "practical"
)

// Keyword extraction bounds. Hangul runs shorter than 2 runes and Latin words
// shorter than 3 are noise; the upper bounds cut concatenation artifacts.
const (
	MinHangulKeywordLen = 2
	MaxHangulKeywordLen = 8
	MinLatinKeywordLen  = 3
	MaxLatinKeywordLen  = 15

	// MinKeywordCount drops keywords seen only once.
	MinKeywordCount = 2

	// TopKeywordCount bounds the profile keyword list.
	TopKeywordCount = 30
)

// Depth thresholds over whole-corpus counters.
const (
	DepthDeepNumericMentions = 100
	DepthDeepDomainMentions  = 50
	DepthLightNumericMax     = 20
)

// Persona and rule thresholds.
const (
	PersonaInvestmentMin = 30
	PersonaRealEstateMin = 20
	PersonaExperienceMin = 20
	PersonaPracticalMin  = 15

	RuleNumericMin    = 50
	RuleExperienceMin = 15
	RulePracticalMin  = 10

	OutputExperienceMin = 20

	// SecondaryToneMin is the normalized score above which a secondary
	// tone is mentioned in the style description.
	SecondaryToneMin = 0.3
)

// InvestmentVocabulary matches investment and finance terms.
var InvestmentVocabulary = []string{
	"투자", "수익률", "매매", "임대", "자산", "포트폴리오", "펀드", "배당",
	"investment", "yield", "portfolio", "dividend", "asset", "rental",
}

// LocationVocabulary matches place names common in the corpora.
var LocationVocabulary = []string{
	"도쿄", "오사카", "교토", "요코하마", "시부야", "신주쿠", "하라주쿠", "롯폰기",
	"tokyo", "osaka", "kyoto", "yokohama", "district",
}

// ExperienceVocabulary matches first-person-experience phrases.
var ExperienceVocabulary = []string{
	"경험", "실제로", "직접", "해보니", "느낀점", "후기", "체험", "실전",
	"experience", "firsthand", "in practice", "i tried",
}

// RealEstateVocabulary matches real-estate terms.
var RealEstateVocabulary = []string{
	"부동산", "아파트", "원룸", "오피스텔", "상가", "토지", "건물",
	"real estate", "apartment", "property", "studio",
}

// PracticalVocabulary matches how-to and tip terms.
var PracticalVocabulary = []string{
	"방법", "팁", "노하우", "전략", "비법", "요령", "기법",
	"tips", "strategy", "how to", "checklist",
}

// ToneVocabularies maps each tone bucket to its indicator terms.
var ToneVocabularies = map[string][]string{
	ToneFormal: {
		"습니다", "됩니다", "있습니다", "것입니다", "드립니다",
		"therefore", "furthermore", "regarding",
	},
	ToneCasual: {
		"해요", "이에요", "거예요", "네요", "어요",
		"gonna", "stuff", "pretty much",
	},
	ToneAnalytical: {
		"분석", "데이터", "지표", "전문적", "연구", "조사",
		"analysis", "data", "metric", "research",
	},
	TonePractical: {
		"실제", "직접", "경험", "팁", "방법", "노하우",
		"practical", "hands-on", "step by step",
	},
}

// ToneStyleDescriptions maps a primary tone to its style description.
var ToneStyleDescriptions = map[string]string{
	ToneFormal:     "polite and professional",
	ToneCasual:     "friendly and conversational",
	ToneAnalytical: "analytical and data-driven",
	TonePractical:  "practical and experience-oriented",
}

// KeywordStopwords are dropped from keyword extraction.
var KeywordStopwords = map[string]struct{}{
	"이것": {}, "그것": {}, "저것": {}, "여기": {}, "거기": {}, "저기": {},
	"이거": {}, "그거": {}, "저거": {}, "때문": {}, "경우": {}, "정도": {},
	"시간": {}, "사람": {}, "생각": {}, "말씀": {}, "이야기": {},
	"this": {}, "that": {}, "have": {}, "been": {}, "will": {},
	"with": {}, "from": {}, "they": {}, "the": {}, "and": {}, "for": {},
	"was": {}, "are": {}, "you": {}, "what": {}, "about": {},
}

// VideoTypeTitleKeywords infers a video type from title keywords.
var VideoTypeTitleKeywords = map[string][]string{
	"analysis":   {"분석", "리뷰", "평가", "analysis", "review"},
	"tips":       {"팁", "방법", "노하우", "비법", "tips", "guide"},
	"experience": {"후기", "경험", "체험", "실전", "experience", "diary"},
	"news":       {"속보", "뉴스", "정보", "업데이트", "news", "update"},
}

// Question classification vocabularies, used to pick generation temperature
// and to gate re-ranking. Factual questions want low temperature; analytical
// ones tolerate more.
var (
	FactualQuestionTerms = []string{
		"언제", "몇", "얼마", "어디", "누가", "무엇", "어느",
		"가격", "비용", "요금", "수치", "날짜", "주소", "위치", "정의",
		"when", "where", "who", "what is", "how much", "how many", "price",
	}

	AnalyticalQuestionTerms = []string{
		"왜", "이유", "원인", "배경", "근거",
		"어떻게", "방법", "과정", "절차", "단계",
		"비교", "차이", "장단점", "전략", "평가", "분석",
		"전망", "예측", "추천", "제안",
		"why", "how", "compare", "difference", "strategy", "recommend",
		"forecast", "versus", "trade-off", "best",
	}
)

// Question length cut-offs for classification scoring.
const (
	ShortQuestionRunes = 20
	LongQuestionRunes  = 50
)
