package stage

// Capability tokens produced by the built-in stages.
const (
	Tokenize       Requirement = "tokenize"
	CleanXML       Requirement = "cleanxml"
	DocDate        Requirement = "docdate"
	Ssplit         Requirement = "ssplit"
	POS            Requirement = "pos"
	Lemma          Requirement = "lemma"
	NER            Requirement = "ner"
	RegexNER       Requirement = "regexner"
	EntityMentions Requirement = "mentions"
	Parse          Requirement = "parse"
	DepParse       Requirement = "depparse"
	NatLog         Requirement = "natlog"
	OpenIE         Requirement = "openie"
	Relation       Requirement = "relation"
	Coref          Requirement = "coref"
	Quote          Requirement = "quote"
)
