package ledger

import (
	"taskledger/taskledger"
)

// HashSeq fingerprints every published Book. Two States with the same Projects and Tasks in the same
// condition produce the same hash. Sequence counts Projects plus Tasks.
func (s *State) HashSeq() taskledger.HashSeq {
	return HashBooks(s.Books())
}

// HashBooks fingerprints books as HashSeq does for a State holding exactly these books.
func HashBooks(books []*Book) (hs taskledger.HashSeq) {
	hs.Mind = "ledger"
	for _, b := range books {
		hs.Sequence++
		p := b.Project
		for _, d := range []interface{}{p.ID, p.Name, p.Members, p.Completed, uint64(len(b.Tasks))} {
			appendData(&hs, d)
		}
		for _, t := range b.Tasks {
			hs.Sequence++
			for _, d := range []interface{}{t.ID, t.Description, t.AssignedTo, t.Deadline.Unix(), t.Reward, t.Completed, t.Verified, t.Rewarded} {
				appendData(&hs, d)
			}
		}
	}
	hs.S256()
	return
}

func appendData(hs *taskledger.HashSeq, d interface{}) {
	// length prefix so that adjacent strings cannot run into each other
	if str, ok := d.(string); ok {
		appendData(hs, uint64(len(str)))
	}
	if err := hs.AppendData(d); err != nil {
		taskledger.LogCLI(err, 1)
	}
}
