package gameplay

const (
	CategoryAnimals = "animals"
	CategoryFood    = "food"
	CategoryNature  = "nature"
	CategorySpace   = "space"
	CategorySports  = "sports"
	CategoryTravel  = "travel"
)

// Template is the immutable face of a card pair.
type Template struct {
	PairID   string
	Glyph    string
	Category string
}

var templates = []Template{
	{"animal-cat", "🐱", CategoryAnimals},
	{"animal-dog", "🐶", CategoryAnimals},
	{"animal-fox", "🦊", CategoryAnimals},
	{"animal-panda", "🐼", CategoryAnimals},
	{"animal-lion", "🦁", CategoryAnimals},
	{"animal-frog", "🐸", CategoryAnimals},
	{"animal-owl", "🦉", CategoryAnimals},
	{"animal-octopus", "🐙", CategoryAnimals},

	{"food-pizza", "🍕", CategoryFood},
	{"food-burger", "🍔", CategoryFood},
	{"food-sushi", "🍣", CategoryFood},
	{"food-taco", "🌮", CategoryFood},
	{"food-donut", "🍩", CategoryFood},
	{"food-apple", "🍎", CategoryFood},
	{"food-cheese", "🧀", CategoryFood},
	{"food-cake", "🍰", CategoryFood},

	{"nature-tree", "🌳", CategoryNature},
	{"nature-cactus", "🌵", CategoryNature},
	{"nature-sunflower", "🌻", CategoryNature},
	{"nature-mushroom", "🍄", CategoryNature},
	{"nature-leaf", "🍁", CategoryNature},
	{"nature-wave", "🌊", CategoryNature},
	{"nature-volcano", "🌋", CategoryNature},
	{"nature-rainbow", "🌈", CategoryNature},

	{"space-rocket", "🚀", CategorySpace},
	{"space-moon", "🌙", CategorySpace},
	{"space-star", "⭐", CategorySpace},
	{"space-planet", "🪐", CategorySpace},
	{"space-comet", "☄️", CategorySpace},
	{"space-alien", "👽", CategorySpace},
	{"space-satellite", "🛰️", CategorySpace},
	{"space-telescope", "🔭", CategorySpace},

	{"sports-soccer", "⚽", CategorySports},
	{"sports-basketball", "🏀", CategorySports},
	{"sports-tennis", "🎾", CategorySports},
	{"sports-baseball", "⚾", CategorySports},
	{"sports-bowling", "🎳", CategorySports},
	{"sports-golf", "⛳", CategorySports},
	{"sports-skiing", "⛷️", CategorySports},
	{"sports-trophy", "🏆", CategorySports},

	{"travel-plane", "✈️", CategoryTravel},
	{"travel-train", "🚆", CategoryTravel},
	{"travel-ship", "🚢", CategoryTravel},
	{"travel-car", "🚗", CategoryTravel},
	{"travel-globe", "🌍", CategoryTravel},
	{"travel-tent", "⛺", CategoryTravel},
	{"travel-map", "🗺️", CategoryTravel},
	{"travel-luggage", "🧳", CategoryTravel},
}

var categories = []string{
	CategoryAnimals,
	CategoryFood,
	CategoryNature,
	CategorySpace,
	CategorySports,
	CategoryTravel,
}

// Categories returns the known category labels.
func Categories() []string {
	out := make([]string, len(categories))
	copy(out, categories)
	return out
}

func IsKnownCategory(label string) bool {
	for _, c := range categories {
		if c == label {
			return true
		}
	}
	return false
}
