package api

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
)

// Image is one image inside a folder.
type Image struct {
	ID   string `json:"_id"`
	Name string `json:"name"`
	Path string `json:"imagePath"`
}

// Folder is a shared folder with its images.
type Folder struct {
	ID       string  `json:"_id"`
	Name     string  `json:"name"`
	Disabled bool    `json:"disabled"`
	Images   []Image `json:"images"`
}

// ListFolders returns the folders visible to the caller.
func (c *Client) ListFolders(ctx context.Context) ([]Folder, error) {
	var folders []Folder
	if err := c.getJSON(ctx, "/api/folder", &folders); err != nil {
		return nil, err
	}

	return folders, nil
}

// CreateFolder creates a named folder and returns it.
func (c *Client) CreateFolder(ctx context.Context, name string) (*Folder, error) {
	var out struct {
		Folder Folder `json:"folder"`
	}

	err := c.postJSON(ctx, http.MethodPost, "/api/folder/create", map[string]string{
		"name": name,
	}, &out)
	if err != nil {
		return nil, err
	}

	return &out.Folder, nil
}

// RenameFolder changes a folder's display name.
func (c *Client) RenameFolder(ctx context.Context, folderID, newName string) error {
	return c.postJSON(ctx, http.MethodPut, "/api/folder/"+folderID, map[string]string{
		"newName": newName,
	}, nil)
}

// DeleteFolder removes a folder and its contents.
func (c *Client) DeleteFolder(ctx context.Context, folderID string) error {
	return c.postJSON(ctx, http.MethodDelete, "/api/folder/"+folderID, nil, nil)
}

// DisableFolder toggles a folder's visibility for regular users.
func (c *Client) DisableFolder(ctx context.Context, folderID string) error {
	return c.postJSON(ctx, http.MethodPut, "/api/folder/disable/"+folderID, nil, nil)
}

// RenameImage changes an image's display name.
func (c *Client) RenameImage(ctx context.Context, folderID, imageID, newName string) error {
	path := fmt.Sprintf("/api/folder/%s/image/%s", folderID, imageID)

	return c.postJSON(ctx, http.MethodPut, path, map[string]string{
		"newName": newName,
	}, nil)
}

// DeleteImage removes an image by its stored path. The server deletes
// the folder too when its last image goes; folderDeleted reports that.
func (c *Client) DeleteImage(ctx context.Context, folderID, imagePath string) (folderDeleted bool, err error) {
	var out struct {
		FolderDeleted bool `json:"folderDeleted"`
	}

	err = c.postJSON(ctx, http.MethodDelete, "/api/folder/"+folderID+"/image", map[string]string{
		"imagePath": imagePath,
	}, &out)
	if err != nil {
		return false, err
	}

	return out.FolderDeleted, nil
}

// UploadImages sends local files to a folder as one multipart request.
// The whole body is buffered so the gateway can replay the call after a
// token renewal; image uploads are small enough for that to be fine.
func (c *Client) UploadImages(ctx context.Context, folderID string, paths []string) error {
	if len(paths) == 0 {
		return fmt.Errorf("api: no files to upload")
	}

	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)

	for _, p := range paths {
		if err := addFilePart(writer, p); err != nil {
			return err
		}
	}

	if err := writer.Close(); err != nil {
		return fmt.Errorf("api: finalizing multipart body: %w", err)
	}

	resp, err := c.DoTyped(ctx, http.MethodPost, "/api/folder/upload/"+folderID,
		buf.Bytes(), writer.FormDataContentType())
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	_, _ = io.Copy(io.Discard, resp.Body)

	return nil
}

func addFilePart(writer *multipart.Writer, path string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("api: opening %s: %w", path, err)
	}
	defer f.Close()

	part, err := writer.CreateFormFile("images", filepath.Base(path))
	if err != nil {
		return fmt.Errorf("api: creating form part: %w", err)
	}

	if _, err := io.Copy(part, f); err != nil {
		return fmt.Errorf("api: reading %s: %w", path, err)
	}

	return nil
}
