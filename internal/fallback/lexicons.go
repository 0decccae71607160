package fallback

// Keyword lexicons for the local heuristic ranker. Matching is a lowercase
// substring test against the item's title, description and tags.
var (
	vegLexicon = []string{
		"paneer", "dal", "salad", "sprout", "veg", "tofu", "khichdi",
		"sabzi", "idli", "oats", "quinoa", "spinach", "millet", "chana",
	}

	nonvegLexicon = []string{
		"chicken", "egg", "fish", "salmon", "tuna", "mutton", "prawn", "keema",
	}

	lightLexicon = []string{
		"salad", "soup", "steamed", "grilled", "light", "clear", "poha",
		"idli", "khichdi", "smoothie",
	}

	proteinLexicon = []string{
		"protein", "paneer", "chicken", "egg", "dal", "sprout", "tofu",
		"salmon", "chana",
	}
)

func dietLexicon(diet string) []string {
	switch diet {
	case "veg":
		return vegLexicon
	case "nonveg":
		return nonvegLexicon
	default:
		return nil
	}
}
