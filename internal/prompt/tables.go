package prompt

// moodProfile shapes the atmosphere of an illustration prompt.
type moodProfile struct {
	Atmosphere  string
	Palette     string
	Lighting    string
	Expressions string
}

var moodTable = map[string]moodProfile{
	"happy": {
		Atmosphere:  "joyful and warm",
		Palette:     "bright sunny",
		Lighting:    "soft golden daylight",
		Expressions: "wide smiles and sparkling eyes",
	},
	"adventure": {
		Atmosphere:  "exciting and dynamic",
		Palette:     "vivid contrasting",
		Lighting:    "dramatic late-afternoon light",
		Expressions: "determined, curious faces",
	},
	"calm": {
		Atmosphere:  "peaceful and cozy",
		Palette:     "muted pastel",
		Lighting:    "gentle diffused light",
		Expressions: "relaxed, content faces",
	},
	"mysterious": {
		Atmosphere:  "wondrous and slightly mysterious",
		Palette:     "deep twilight blues and purples",
		Lighting:    "moonlight with soft glows",
		Expressions: "wide-eyed wonder",
	},
}

// moodKeywords drive auto-detection. Order matters only for readability;
// ties always resolve to "happy".
var moodKeywords = map[string][]string{
	"happy":      {"happy", "laugh", "smile", "joy", "fun", "celebrate", "party", "giggle", "cheer"},
	"adventure":  {"adventure", "quest", "journey", "explore", "brave", "danger", "treasure", "discover", "expedition"},
	"calm":       {"calm", "quiet", "gentle", "peaceful", "sleep", "soft", "rest", "dream", "lullaby"},
	"mysterious": {"mystery", "secret", "hidden", "strange", "shadow", "whisper", "riddle", "enchanted"},
}

// ageProfile tunes visual complexity per reader age group.
type ageProfile struct {
	Complexity  string
	Outlines    string
	Colors      string
	Proportions string
	Backgrounds string
}

var ageTable = map[string]ageProfile{
	"3-5": {
		Complexity:  "very simple composition with one clear focal point",
		Outlines:    "thick rounded outlines",
		Colors:      "few bold primary colors",
		Proportions: "chubby, toy-like proportions with big heads",
		Backgrounds: "minimal, uncluttered backgrounds",
	},
	"6-8": {
		Complexity:  "simple scene with a few supporting details",
		Outlines:    "clean medium outlines",
		Colors:      "friendly saturated colors",
		Proportions: "slightly stylized child-friendly proportions",
		Backgrounds: "simple scenic backgrounds",
	},
	"9-12": {
		Complexity:  "richer scene with layered details",
		Outlines:    "fine expressive linework",
		Colors:      "nuanced, harmonious colors",
		Proportions: "natural but stylized proportions",
		Backgrounds: "detailed atmospheric backgrounds",
	},
}

const defaultAgeGroup = "6-8"

// styleProfile names the rendering style and its visual anchors.
type styleProfile struct {
	Description  string
	Inspirations string
}

var styleTable = map[string]styleProfile{
	"storybook": {
		Description:  "classic storybook illustration with painterly textures",
		Inspirations: "golden-age picture books",
	},
	"cartoon": {
		Description:  "playful cartoon style with expressive shapes",
		Inspirations: "modern animated shorts",
	},
	"watercolor": {
		Description:  "soft watercolor illustration with visible paper grain",
		Inspirations: "traditional watercolor picture books",
	},
	"papercut": {
		Description:  "layered paper-cutout collage style",
		Inspirations: "handmade paper-craft books",
	},
}

const defaultStyle = "storybook"

// negativePrompt enumerates artifacts to always avoid. It is appended to
// every image request without exception.
const negativePrompt = "text, words, letters, captions, watermark, signature, " +
	"extra limbs, extra fingers, deformed hands, distorted faces, " +
	"photorealistic, photograph, 3d render, " +
	"scary, frightening, horror, violent, weapons, blood, nsfw, nudity"
