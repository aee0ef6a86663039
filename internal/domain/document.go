package domain

import "time"

// ExtractionResult is the text and layout metadata pulled out of a submission.
type ExtractionResult struct {
	Text          string           `json:"text"`
	WordCount     int              `json:"word_count"`
	PageCount     int              `json:"page_count"`
	CharCount     int              `json:"char_count"`
	Tables        []Table          `json:"tables,omitempty"`
	KeyValuePairs []KeyValue       `json:"key_value_pairs,omitempty"`
	Method        string           `json:"method"`
	Metadata      DocumentMetadata `json:"metadata"`
}

// Table is a recognised table from layout-aware extraction.
type Table struct {
	RowCount    int         `json:"row_count"`
	ColumnCount int         `json:"column_count"`
	Cells       []TableCell `json:"cells"`
}

// TableCell is one positioned cell of a Table.
type TableCell struct {
	Content string `json:"content"`
	Row     int    `json:"row"`
	Column  int    `json:"col"`
}

// KeyValue is a form field recognised by the extractor.
type KeyValue struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

// DocumentMetadata describes the submitted file plus well-known form fields.
type DocumentMetadata struct {
	FileName     string    `json:"file_name"`
	FileSize     int64     `json:"file_size"`
	FileType     string    `json:"file_type"`
	ProcessedAt  time.Time `json:"processed_at"`
	Deadline     string    `json:"deadline,omitempty"`
	BudgetAmount string    `json:"budget_amount,omitempty"`
	Applicant    string    `json:"applicant,omitempty"`
}

// SummaryResult holds the executive summary and the highlights reviewers scan first.
type SummaryResult struct {
	ExecutiveSummary string   `json:"executive_summary"`
	KeyClauses       []string `json:"key_clauses"`
	KeyTopics        []string `json:"key_topics"`
	Method           string   `json:"method"`
}

// KnowledgeDocument is a regulation text returned by a knowledge-base search.
type KnowledgeDocument struct {
	ID            string   `json:"id"`
	Number        string   `json:"number"`
	Title         string   `json:"title"`
	Content       string   `json:"content"`
	EffectiveDate string   `json:"effective_date,omitempty"`
	Relevance     float64  `json:"relevance"`
	MatchedTopics []string `json:"matched_topics,omitempty"`
	Requirements  []string `json:"requirements,omitempty"`
}

// Name renders the regulation the way reviewers cite it.
func (d KnowledgeDocument) Name() string {
	if d.Title == "" {
		return "EO " + d.Number
	}
	return d.Number + ": " + d.Title
}
