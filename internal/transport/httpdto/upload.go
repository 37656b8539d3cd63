package httpdto

// UploadResponse is returned after POST /conversations/:id/uploads stores
// the blob. The caller passes these fields back as an AttachmentRequest
// when sending the message.
type UploadResponse struct {
	StorageKey string `json:"storage_key"`
	FileURL    string `json:"file_url"`
	FileName   string `json:"file_name"`
}
