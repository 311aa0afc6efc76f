package model

// ----------------------------------------------------
// ================ Listings ================

// Batch is a selectable entity of the penpencil backend
type Batch struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Price string `json:"price"`
}

// Subject belongs to a batch
type Subject struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Content is one item of a subject contents page
type Content struct {
	Topic string `json:"topic"`
	URL   string `json:"url"`
}

// Course is a selectable entity of the exampur backend
type Course struct {
	ID    string `json:"id"`
	Title string `json:"title"`
	Price string `json:"price"`
}

// Lesson belongs to a course
type Lesson struct {
	ID    string `json:"id"`
	Title string `json:"title"`
}

// Video is a media item of a lesson
type Video struct {
	Name string `json:"name"`
	URL  string `json:"url"`
}

// ----------------------------------------------------
// ================ Output ================

// ContentEntry is one line of an extracted artifact
type ContentEntry struct {
	Title string `json:"title"`
	URL   string `json:"url"`
}
