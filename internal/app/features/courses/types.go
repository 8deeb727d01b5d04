// internal/app/features/courses/types.go
package courses

// Request bodies for the authoring endpoints. Pointer fields distinguish
// "not supplied" from "set to zero value" on partial updates.

type createCourseRequest struct {
	Title       string `json:"title"`
	Description string `json:"description"`
}

type updateCourseRequest struct {
	Title       *string `json:"title"`
	Description *string `json:"description"`
}

type addModuleRequest struct {
	Title string `json:"title"`
}

type updateModuleRequest struct {
	Title *string `json:"title"`
	Order *int    `json:"order"`
}

type addLessonRequest struct {
	Title       string `json:"title"`
	ContentType string `json:"content_type"`
	ContentURL  string `json:"content_url"`
}

type updateLessonRequest struct {
	Title       *string `json:"title"`
	ContentType *string `json:"content_type"`
	ContentURL  *string `json:"content_url"`
	Order       *int    `json:"order"`
}
