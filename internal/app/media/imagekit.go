package media

import (
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"strings"
	"time"

	"github.com/tidwall/gjson"

	"github.com/sbmwhylt/wlt-team-space/internal/httputil"
	"github.com/sbmwhylt/wlt-team-space/internal/logging"
)

// DefaultImageKitUploadURL is the public upload endpoint.
const DefaultImageKitUploadURL = "https://upload.imagekit.io/api/v1/files/upload"

// ImageKit uploads files through the ImageKit upload API.
type ImageKit struct {
	client     *http.Client
	uploadURL  string
	privateKey string
	folder     string
	log        *logging.Logger
}

var _ Uploader = (*ImageKit)(nil)

// ImageKitOptions configures NewImageKit.
type ImageKitOptions struct {
	PrivateKey string
	UploadURL  string
	Folder     string
	Client     *http.Client
}

// NewImageKit validates opts and returns an uploader.
func NewImageKit(opts ImageKitOptions, log *logging.Logger) (*ImageKit, error) {
	if strings.TrimSpace(opts.PrivateKey) == "" {
		return nil, fmt.Errorf("imagekit private key is required")
	}
	if opts.UploadURL == "" {
		opts.UploadURL = DefaultImageKitUploadURL
	}
	if opts.Folder == "" {
		opts.Folder = "/uploads"
	}
	if opts.Client == nil {
		opts.Client = &http.Client{Timeout: 60 * time.Second}
	}
	if log == nil {
		log = logging.NewDefault("media")
	}
	return &ImageKit{
		client:     opts.Client,
		uploadURL:  opts.UploadURL,
		privateKey: opts.PrivateKey,
		folder:     opts.Folder,
		log:        log,
	}, nil
}

func (k *ImageKit) Backend() string { return "imagekit" }

// Upload streams f as multipart form data and returns the hosted URL.
func (k *ImageKit) Upload(ctx context.Context, f File) (string, error) {
	pr, pw := io.Pipe()
	defer pr.Close()
	mw := multipart.NewWriter(pw)

	go func() {
		err := writeImageKitForm(mw, f, k.folder)
		if err == nil {
			err = mw.Close()
		}
		pw.CloseWithError(err)
	}()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, k.uploadURL, pr)
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set("Accept", "application/json")
	req.SetBasicAuth(k.privateKey, "")

	resp, err := k.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("imagekit upload: %w", err)
	}
	defer resp.Body.Close()

	body, err := httputil.ReadAllStrict(resp.Body, httputil.MaxErrorBodyBytes)
	if err != nil {
		return "", fmt.Errorf("read imagekit response: %w", err)
	}
	if resp.StatusCode >= 300 {
		msg := gjson.GetBytes(body, "message").String()
		if msg == "" {
			msg = http.StatusText(resp.StatusCode)
		}
		k.log.WithField("status", resp.StatusCode).Warnf("imagekit rejected upload of %s: %s", f.Name, msg)
		return "", fmt.Errorf("imagekit upload failed (%d): %s", resp.StatusCode, msg)
	}

	url := gjson.GetBytes(body, "url").String()
	if url == "" {
		return "", fmt.Errorf("imagekit response missing url")
	}
	return url, nil
}

func writeImageKitForm(mw *multipart.Writer, f File, folder string) error {
	header := make(textproto.MIMEHeader)
	header.Set("Content-Disposition", fmt.Sprintf(`form-data; name="file"; filename="%s"`, escapeQuotes(SafeName(f.Name))))
	header.Set("Content-Type", f.ContentType)
	part, err := mw.CreatePart(header)
	if err != nil {
		return err
	}
	if _, err := io.Copy(part, f.Body); err != nil {
		return err
	}
	fields := [][2]string{
		{"fileName", SafeName(f.Name)},
		{"folder", folder},
		{"useUniqueFileName", "true"},
	}
	for _, kv := range fields {
		if err := mw.WriteField(kv[0], kv[1]); err != nil {
			return err
		}
	}
	return nil
}

func escapeQuotes(s string) string {
	return strings.NewReplacer("\\", "\\\\", `"`, "\\\"").Replace(s)
}
