package stage

import (
	"fmt"
	"os"
	"strings"

	"github.com/flarebyte/glossa/internal/config"
)

func wordSet(words ...string) map[string]bool {
	m := make(map[string]bool, len(words))
	for _, w := range words {
		m[w] = true
	}
	return m
}

// closedClass maps lowercase function words to their tag.
var closedClass = map[string]string{
	"the": "DT", "a": "DT", "an": "DT", "this": "DT", "that": "DT", "these": "DT", "those": "DT",
	"every": "DT", "some": "DT", "no": "DT", "all": "DT", "each": "DT",
	"i": "PRP", "you": "PRP", "he": "PRP", "she": "PRP", "it": "PRP", "we": "PRP", "they": "PRP",
	"me": "PRP", "him": "PRP", "us": "PRP", "them": "PRP",
	"my": "PRP$", "your": "PRP$", "his": "PRP$", "her": "PRP$", "its": "PRP$", "our": "PRP$", "their": "PRP$",
	"and": "CC", "or": "CC", "but": "CC", "nor": "CC",
	"of": "IN", "in": "IN", "on": "IN", "at": "IN", "with": "IN", "by": "IN", "for": "IN",
	"from": "IN", "into": "IN", "about": "IN", "after": "IN", "before": "IN", "under": "IN", "over": "IN",
	"to": "TO",
	"is": "VBZ", "has": "VBZ", "does": "VBZ",
	"are": "VBP", "am": "VBP", "have": "VBP", "do": "VBP",
	"was": "VBD", "were": "VBD", "had": "VBD", "did": "VBD", "said": "VBD", "went": "VBD", "met": "VBD",
	"be": "VB", "been": "VBN", "being": "VBG",
	"will": "MD", "would": "MD", "can": "MD", "could": "MD", "should": "MD", "may": "MD", "might": "MD", "must": "MD",
	"not": "RB", "n't": "RB", "never": "RB", "very": "RB", "also": "RB",
	"who": "WP", "what": "WP", "which": "WDT", "where": "WRB", "when": "WRB", "how": "WRB",
}

var punctTags = wordSet(".", ",", ":", "``", "''", "-LRB-", "-RRB-", "#", "$", "SYM")

// irregularLemmas maps lowercase inflected forms to their lemma.
var irregularLemmas = map[string]string{
	"is": "be", "are": "be", "am": "be", "was": "be", "were": "be", "been": "be", "being": "be",
	"has": "have", "had": "have", "does": "do", "did": "do", "went": "go", "said": "say",
	"met": "meet", "men": "man", "women": "woman", "children": "child", "people": "person",
	"n't": "not",
}

var negationWords = wordSet("not", "n't", "no", "never", "none", "nobody", "nothing", "neither", "nor")

var titles = wordSet("Mr.", "Mrs.", "Ms.", "Dr.", "Prof.", "President", "Senator", "Judge")

var abbreviations = wordSet("Mr", "Mrs", "Ms", "Dr", "Prof", "St", "Inc", "Corp", "Ltd", "Co", "Jr", "Sr", "vs", "etc")

var firstNames = wordSet(
	"John", "Mary", "James", "Patricia", "Robert", "Jennifer", "Michael", "Linda", "William", "Elizabeth",
	"David", "Susan", "Richard", "Sarah", "Joseph", "Karen", "Thomas", "Nancy", "Barack", "Hillary",
	"Alice", "Bob", "Carol", "Emma", "Olivia", "Noah", "Liam", "Sophia", "Ada", "Alan", "Grace", "Marie",
)

var locations = wordSet(
	"Paris", "London", "Berlin", "Rome", "Madrid", "Tokyo", "Beijing", "Moscow", "Washington", "Chicago",
	"Boston", "California", "Texas", "France", "Germany", "Italy", "Spain", "Japan", "China", "Russia",
	"England", "Europe", "Asia", "Africa", "America", "Canada", "Mexico", "India", "Hawaii", "York",
	"Stanford", "Seattle",
)

var orgSuffixes = wordSet("Inc.", "Inc", "Corp.", "Corp", "Ltd.", "Ltd", "Company", "University", "Institute",
	"Bank", "Agency", "Association", "Committee", "Group", "Foundation", "Co.")

var months = wordSet("January", "February", "March", "April", "May", "June", "July", "August",
	"September", "October", "November", "December")

var weekdays = wordSet("Monday", "Tuesday", "Wednesday", "Thursday", "Friday", "Saturday", "Sunday")

var personPronouns = wordSet("he", "him", "his", "she", "her")

var thingPronouns = wordSet("it", "its")

var pluralPronouns = wordSet("they", "them", "their")

func isNounTag(tag string) bool {
	return strings.HasPrefix(tag, "NN") || tag == "PRP" || tag == "CD"
}

func isVerbTag(tag string) bool { return strings.HasPrefix(tag, "VB") }

func isPunctTag(tag string) bool { return punctTags[tag] }

// checkModel fails construction when <name>.model names a missing file.
// "default" and an unset key select the built-in lexicon.
func checkModel(name string, props config.Properties) error {
	model, ok := props.Lookup(name + ".model")
	model = strings.TrimSpace(model)
	if !ok || model == "" || model == "default" {
		return nil
	}
	if _, err := os.Stat(model); err != nil {
		return fmt.Errorf("%s: model not found: %s", name, model)
	}
	return nil
}
