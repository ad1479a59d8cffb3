package supabase

import (
	"bytes"
	"fmt"
	"io"
	"net/http"
	"strings"
)

const bucket = "plants"

// UploadImage stores the raw bytes under name in the plants bucket and
// returns the public URL. No image processing happens here; bytes go
// through as-is.
func (c *Client) UploadImage(data []byte, name string) (string, error) {
	url := fmt.Sprintf("%s/storage/v1/object/%s/%s", c.BaseURL, bucket, name)
	req, err := http.NewRequest("POST", url, bytes.NewReader(data))
	if err != nil {
		return "", err
	}
	req.Header.Set("apikey", c.ServiceKey)
	req.Header.Set("Authorization", "Bearer "+c.ServiceKey)
	req.Header.Set("Content-Type", sniffContentType(name, data))
	req.Header.Set("x-upsert", "true")
	resp, err := c.HTTP.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 400 {
		body, _ := io.ReadAll(resp.Body)
		return "", fmt.Errorf("upload %s: status %d: %s", name, resp.StatusCode, strings.TrimSpace(string(body)))
	}
	return fmt.Sprintf("%s/storage/v1/object/public/%s/%s", c.BaseURL, bucket, name), nil
}

// DeleteImage removes the object behind a public URL previously returned
// by UploadImage. Unknown URLs report false without error.
func (c *Client) DeleteImage(url string) (bool, error) {
	marker := "/" + bucket + "/"
	idx := strings.LastIndex(url, marker)
	if idx < 0 {
		return false, nil
	}
	name := url[idx+len(marker):]
	req, err := http.NewRequest("DELETE", fmt.Sprintf("%s/storage/v1/object/%s/%s", c.BaseURL, bucket, name), nil)
	if err != nil {
		return false, err
	}
	req.Header.Set("apikey", c.ServiceKey)
	req.Header.Set("Authorization", "Bearer "+c.ServiceKey)
	resp, err := c.HTTP.Do(req)
	if err != nil {
		return false, err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 400 {
		body, _ := io.ReadAll(resp.Body)
		return false, fmt.Errorf("delete %s: status %d: %s", name, resp.StatusCode, strings.TrimSpace(string(body)))
	}
	return true, nil
}

func sniffContentType(name string, data []byte) string {
	switch {
	case strings.HasSuffix(name, ".png"):
		return "image/png"
	case strings.HasSuffix(name, ".webp"):
		return "image/webp"
	case strings.HasSuffix(name, ".jpg"), strings.HasSuffix(name, ".jpeg"):
		return "image/jpeg"
	}
	return http.DetectContentType(data)
}
