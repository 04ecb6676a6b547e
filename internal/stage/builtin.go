package stage

// builtins is the static stage table, in canonical order.
var builtins = []Entry{
	{Name: "tokenize", Keys: []string{"ssplit.newlineIsSentenceBreak"}, Factory: newTokenizer},
	{Name: "cleanxml", Prerequisites: []string{"tokenize"}, Factory: newCleanXML},
	{Name: "docdate", Factory: newDocDate},
	{Name: "ssplit", Prerequisites: []string{"tokenize"}, Factory: newSentenceSplitter},
	{Name: "pos", Prerequisites: []string{"tokenize", "ssplit"}, Factory: newTagger},
	{Name: "lemma", Prerequisites: []string{"tokenize", "ssplit", "pos"}, Factory: newLemmatizer},
	{Name: "ner", Prerequisites: []string{"tokenize", "ssplit", "pos", "lemma"}, Factory: newNER},
	{Name: "regexner", Prerequisites: []string{"tokenize", "ssplit", "pos"}, Factory: newRegexNER},
	{Name: "entitymentions", Prerequisites: []string{"tokenize", "ssplit", "pos", "lemma", "ner"}, Factory: newEntityMentions},
	{Name: "parse", Prerequisites: []string{"tokenize", "ssplit", "pos"}, Factory: newParser},
	{Name: "depparse", Prerequisites: []string{"tokenize", "ssplit", "pos"}, Factory: newDepParser},
	{Name: "natlog", Prerequisites: []string{"tokenize", "ssplit", "pos", "lemma", "depparse"}, Factory: newNatLog},
	{Name: "openie", Prerequisites: []string{"tokenize", "ssplit", "pos", "lemma", "depparse", "natlog"}, Factory: newOpenIE},
	{Name: "relation", Prerequisites: []string{"tokenize", "ssplit", "pos", "lemma", "ner", "depparse"}, Factory: newRelationExtractor},
	{Name: "coref", Prerequisites: []string{"tokenize", "ssplit", "pos", "lemma", "ner", "depparse"}, Factory: newCoref, PrerequisitesFor: corefPrerequisites},
	{Name: "quote", Prerequisites: []string{"tokenize", "ssplit"}, Factory: newQuoteAnnotator},
}

// builtinPlugins are the plugin classes available to custom stages.
var builtinPlugins = map[string]Factory{
	"lua": newLuaStage,
}
