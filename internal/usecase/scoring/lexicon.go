package scoring

// DefaultAuthority вес источника, которого нет в таблице.
const DefaultAuthority = 5

// DiscussionAuthority вес любой статьи, найденной через агрегатор обсуждений.
const DiscussionAuthority = 9

// AuthorityMultiplier множитель веса источника в итоговой оценке.
const AuthorityMultiplier = 1.5

// GlobalTrendCategory категория источника по умолчанию для статей из обсуждений.
const GlobalTrendCategory = "全球 AI 趨勢"

// TaiwanTechCategory категория известных тайваньских технологических изданий.
const TaiwanTechCategory = "台灣科技新聞"

// SourceWeights авторитетность источников по имени.
var SourceWeights = map[string]int{
	"Whitehouse":                  10,
	"NIST":                        9,
	"GOV.UK":                      8,
	"CISA":                        8,
	"Euractiv":                    7,
	"Futurium":                    7,
	"AI Policy Tracker":           8,
	"White & Case":                7,
	"Nature":                      10,
	"Nature NPJ Digital Med":      9,
	"IEEE Spectrum":               9,
	"Turing Institute":            8,
	"PNAS":                        9,
	"RAND":                        8,
	"Wevolver":                    7,
	"TechCrunch":                  9,
	"TechCrunch AI":               9,
	"VentureBeat":                 8,
	"TechNews":                    7,
	"iThome":                      10,
	"INSIDE":                      10,
	"數位時代":                        10,
	"TechOrange":                  9,
	"TechOrange 科技報橘":             10,
	"BusinessNext":                8,
	"Meet":                        7,
	"Techbang":                    7,
	"經濟日報 AI":                     9,
	"聯合報科技":                       9,
	"CMoney投資網誌":                  9,
	"CMoney":                      9,
	"科技島":                         10,
	"news.cnyes.com":              8,
	"聯合新聞網":                       10,
	"TechNews 科技新報":               10,
	"工商時報":                        9,
	"中央社 CNA":                     10,
	"經濟日報":                        9,
	"奇摩新聞":                        8,
	"蕃新聞":                         7,
	"網管人":                         8,
	"台視全球資訊網":                     8,
	"Techritual Hong Kong":        7,
	"AI News":                     7,
	"Computer Weekly":             7,
	"Washington Examiner":         6,
	"IT Brief NZ":                 6,
	"Sequoia Cap":                 8,
	"Christian Kromme":            6,
	"Campaign Archive":            5,
	"HackingAI":                   9,
	"TLDR Tech AI":                8,
}

// Keyword ключевое слово с весом.
type Keyword struct {
	Word   string
	Weight int
}

// Keywords взвешенный словарь. Порядок фиксирован, чтобы сумма не зависела от обхода map.
var Keywords = []Keyword{
	// регулирование
	{"regulation", 3}, {"law", 3}, {"government", 3}, {"policy", 3}, {"ban", 3},
	{"compliance", 2}, {"legislation", 3}, {"executive order", 3},
	{"法規", 3}, {"政策", 3}, {"監管", 3}, {"法律", 3},
	// исследования
	{"breakthrough", 3}, {"research", 3}, {"algorithm", 3}, {"model", 2}, {"paper", 2},
	{"study", 2}, {"discovery", 3}, {"innovation", 2},
	{"研究", 3}, {"突破", 3}, {"演算法", 3}, {"創新", 2},
	// индустрия
	{"launch", 2}, {"release", 2}, {"product", 2}, {"deploy", 2}, {"adopt", 2},
	{"implementation", 2}, {"rollout", 2},
	{"發布", 2}, {"推出", 2}, {"部署", 2}, {"應用", 2},
	// бизнес
	{"funding", 2}, {"investment", 2}, {"acquisition", 2}, {"ipo", 3}, {"revenue", 2},
	{"partnership", 2}, {"merger", 2},
	{"融資", 2}, {"投資", 2}, {"併購", 2}, {"收購", 2},
	// риски
	{"security", 3}, {"breach", 3}, {"bias", 3}, {"risk", 3}, {"concern", 2},
	{"threat", 3}, {"vulnerability", 3}, {"attack", 3},
	{"風險", 3}, {"資安", 3}, {"威脅", 3}, {"漏洞", 3},
}

// RiskKeywords признаки рубрики Risk.
var RiskKeywords = []string{"security", "breach", "bias", "risk", "threat", "vulnerability", "attack", "風險", "資安", "威脅"}

// BusinessKeywords признаки рубрики Business внутри технологических источников.
var BusinessKeywords = []string{"funding", "investment", "acquisition", "ipo", "revenue", "融資", "投資", "併購"}

// TaiwanTechSources издания без записи в конфиге, которые относятся к тайваньским технологическим новостям.
var TaiwanTechSources = []string{
	"CMoney投資網誌", "CMoney", "科技島", "news.cnyes.com",
	"聯合新聞網", "TechNews 科技新報", "TechOrange 科技報橘",
	"工商時報", "中央社 CNA", "經濟日報", "奇摩新聞",
	"蕃新聞", "網管人", "台視全球資訊網", "Techritual Hong Kong",
}

// Маркеры категорий источника. Сопоставление по подстроке, без учёта регистра.
var (
	policyMarkers   = []string{"政策", "政府", "policy", "government"}
	academicMarkers = []string{"學術", "科學", "academic", "science", "research"}
	techNewsMarkers = []string{"科技", "新聞", "趨勢", "tech", "news", "trend"}
)
