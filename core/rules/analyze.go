package rules

import (
	"strings"
	"unicode"
)

// TerrainKind is a terrain family recognised in a description.
type TerrainKind string

const (
	KindDesert   TerrainKind = "desert"
	KindSnow     TerrainKind = "snow"
	KindMountain TerrainKind = "mountain"
	KindForest   TerrainKind = "forest"
	KindPlains   TerrainKind = "plains"
	KindSwamp    TerrainKind = "swamp"
	KindCoast    TerrainKind = "coast"
)

// Class is a feature class that a description can request or negate.
type Class string

const (
	ClassWater   Class = "water"
	ClassGrass   Class = "grass"
	ClassTrees   Class = "trees"
	ClassObjects Class = "objects"
	ClassFog     Class = "fog"
	ClassCity    Class = "city"
)

// Context is what the rules know about the description (value type).
type Context struct {
	// Kinds lists distinct terrain kinds in order of first mention.
	Kinds []TerrainKind

	// Dominant is the most mentioned kind; ties go to the earliest.
	Dominant TerrainKind

	// CityMode is set when the description asks for a city.
	CityMode bool

	// Negated classes were explicitly excluded ("no water", "without trees").
	Negated map[Class]bool

	// Requested classes were mentioned without negation.
	Requested map[Class]bool
}

// IsNegated reports whether c was explicitly excluded.
func (c Context) IsNegated(class Class) bool {
	return c.Negated[class]
}

// IsRequested reports whether c was mentioned and not excluded.
func (c Context) IsRequested(class Class) bool {
	return c.Requested[class] && !c.Negated[class]
}

// KindAt returns the kind of terrain i, falling back to the dominant kind.
func (c Context) KindAt(i int) TerrainKind {
	if i < len(c.Kinds) {
		return c.Kinds[i]
	}
	return c.Dominant
}

var kindWords = map[string]TerrainKind{
	"desert": KindDesert, "deserts": KindDesert, "dune": KindDesert, "dunes": KindDesert,
	"arid": KindDesert, "sahara": KindDesert,

	"snow": KindSnow, "snowy": KindSnow, "arctic": KindSnow, "tundra": KindSnow,
	"glacier": KindSnow, "glaciers": KindSnow, "frozen": KindSnow, "icy": KindSnow,
	"winter": KindSnow,

	"mountain": KindMountain, "mountains": KindMountain, "mountainous": KindMountain,
	"peak": KindMountain, "peaks": KindMountain, "alpine": KindMountain, "cliff": KindMountain,
	"cliffs": KindMountain, "hill": KindMountain, "hills": KindMountain, "hilly": KindMountain,

	"forest": KindForest, "forests": KindForest, "woods": KindForest, "woodland": KindForest,
	"jungle": KindForest, "rainforest": KindForest,

	"plain": KindPlains, "plains": KindPlains, "grassland": KindPlains, "grasslands": KindPlains,
	"meadow": KindPlains, "meadows": KindPlains, "field": KindPlains, "fields": KindPlains,
	"prairie": KindPlains, "savanna": KindPlains,

	"swamp": KindSwamp, "swamps": KindSwamp, "marsh": KindSwamp, "marshes": KindSwamp,
	"bog": KindSwamp, "wetland": KindSwamp, "wetlands": KindSwamp,

	"coast": KindCoast, "coastal": KindCoast, "beach": KindCoast, "beaches": KindCoast,
	"shore": KindCoast, "shoreline": KindCoast, "island": KindCoast,
}

var classWords = map[string]Class{
	"water": ClassWater, "river": ClassWater, "rivers": ClassWater, "lake": ClassWater,
	"lakes": ClassWater, "ocean": ClassWater, "sea": ClassWater, "pond": ClassWater,
	"stream": ClassWater, "streams": ClassWater,

	"grass": ClassGrass, "grassy": ClassGrass,

	"tree": ClassTrees, "trees": ClassTrees, "forest": ClassTrees, "forests": ClassTrees,
	"woods": ClassTrees, "pine": ClassTrees, "pines": ClassTrees, "jungle": ClassTrees,

	"object": ClassObjects, "objects": ClassObjects, "house": ClassObjects, "houses": ClassObjects,
	"building": ClassObjects, "buildings": ClassObjects, "wheel": ClassObjects,

	"fog": ClassFog, "foggy": ClassFog, "mist": ClassFog, "misty": ClassFog, "haze": ClassFog,
	"hazy": ClassFog,

	"city": ClassCity, "cities": ClassCity, "town": ClassCity, "towns": ClassCity,
	"urban": ClassCity, "downtown": ClassCity, "metropolis": ClassCity,
	"skyscraper": ClassCity, "skyscrapers": ClassCity, "street": ClassCity, "streets": ClassCity,
}

// Words that open a negated noun phrase.
var negators = map[string]bool{
	"no": true, "without": true, "zero": true, "dont": true, "don't": true, "never": true,
}

// "not" negates only in front of these ("do not add", "not any").
var afterNot = map[string]bool{
	"any": true, "add": true, "include": true, "want": true, "put": true, "have": true, "need": true,
}

// Words that close a negated phrase.
var phraseEnders = map[string]bool{
	"and": true, "with": true, "plus": true, "but": true,
}

// Words that carry a negation on to the next noun ("no trees or grass").
var phraseCarriers = map[string]bool{
	"or": true, "nor": true,
}

// maxLead bounds the words between a negator and the noun it negates.
const maxLead = 4

const comma = ","

// Analyze scans a description for terrain kinds, city mode, and requested or
// negated feature classes. A negator covers the noun phrase right after it,
// carried on by "or", "nor" and comma lists of further nouns.
func Analyze(description string) Context {
	ctx := Context{
		Negated:   make(map[Class]bool),
		Requested: make(map[Class]bool),
	}
	mentions := make(map[TerrainKind]int)

	for _, clause := range clauses(description) {
		var p phrase
		for i, w := range clause {
			switch {
			case negators[w] || (w == "not" && i+1 < len(clause) && afterNot[clause[i+1]]):
				p = phrase{open: true}
				continue
			case w == comma:
				if p.open && !(p.head && i+1 < len(clause) && isNoun(clause[i+1])) {
					p = phrase{}
				}
				continue
			case phraseEnders[w]:
				p = phrase{}
				continue
			case phraseCarriers[w]:
				p.head = false
				p.lead = 0
				continue
			}

			noun := isNoun(w)
			if p.open && !noun {
				if p.head || p.lead >= maxLead {
					p = phrase{}
				} else {
					p.lead++
				}
			}

			if k, ok := kindWords[w]; ok && !p.open {
				if mentions[k] == 0 {
					ctx.Kinds = append(ctx.Kinds, k)
				}
				mentions[k]++
			}

			if c, ok := classWords[w]; ok {
				if p.open {
					ctx.Negated[c] = true
				} else {
					ctx.Requested[c] = true
				}
			}
			if noun && p.open {
				p.head = true
			}
		}
	}

	best := 0
	for _, k := range ctx.Kinds {
		if mentions[k] > best {
			best = mentions[k]
			ctx.Dominant = k
		}
	}

	ctx.CityMode = ctx.Requested[ClassCity] && !ctx.Negated[ClassCity]
	return ctx
}

// phrase tracks an open negation.
type phrase struct {
	open bool // a negator is in effect
	head bool // the negated noun has been seen
	lead int  // words read before the noun
}

func isNoun(w string) bool {
	_, class := classWords[w]
	_, kind := kindWords[w]
	return class || kind
}

// clauses splits text into lower-case word lists at sentence punctuation.
// Commas are kept as their own token.
func clauses(text string) [][]string {
	var out [][]string
	var words []string
	var word strings.Builder

	flushWord := func() {
		if word.Len() == 0 {
			return
		}
		words = append(words, word.String())
		word.Reset()
	}

	for _, r := range strings.ToLower(text) {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r) || r == '\'' || r == '’':
			if r == '’' {
				r = '\''
			}
			word.WriteRune(r)
		case r == ',':
			flushWord()
			words = append(words, comma)
		case r == '.' || r == ';' || r == '!' || r == '?' || r == ':' || r == '\n':
			flushWord()
			flushClause(&out, &words)
		default:
			flushWord()
		}
	}
	flushWord()
	flushClause(&out, &words)
	return out
}

func flushClause(out *[][]string, words *[]string) {
	if len(*words) > 0 {
		*out = append(*out, *words)
	}
	*words = nil
}
