package ingest

// FileSummary describes one intake file. Rows counts committed rows, so for a file that
// stopped on an error it is the number of rows that stay persisted.
type FileSummary struct {
	File             string
	ArchivedTo       string
	Rows             int
	CustomersCreated int
	CustomersReused  int
	InvoicesCreated  int
	InvoicesReused   int
	LineItems        int
	Committed        bool
}

type Summary struct {
	RunID string
	Files []FileSummary
}

// Loaded is the number of files fully ingested and archived.
func (s *Summary) Loaded() int {
	n := 0
	for _, f := range s.Files {
		if f.Committed {
			n++
		}
	}
	return n
}

func (s *Summary) Rows() int {
	n := 0
	for _, f := range s.Files {
		n += f.Rows
	}
	return n
}

func (s *Summary) CustomersCreated() int {
	n := 0
	for _, f := range s.Files {
		n += f.CustomersCreated
	}
	return n
}

func (s *Summary) InvoicesCreated() int {
	n := 0
	for _, f := range s.Files {
		n += f.InvoicesCreated
	}
	return n
}

func (s *Summary) LineItems() int {
	n := 0
	for _, f := range s.Files {
		n += f.LineItems
	}
	return n
}
