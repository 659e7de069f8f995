package escrow

//Kind650108 STATUS:DRAFT
//Used by the admin to verify a Project and attach the funds to pay its completed Tasks with
type Kind650108 struct {
	Project uint64 `json:"project"`
	Funds   uint64 `json:"funds"`
}
