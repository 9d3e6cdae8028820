package entity

type Note struct {
	ID        string
	Title     string
	Body      string
	Author    string
	Tags      []string
	CreatedAt int64
}
