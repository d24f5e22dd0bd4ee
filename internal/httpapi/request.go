package httpapi

import (
	"encoding/json"
	"errors"
	"mime"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"

	"github.com/gorilla/mux"

	"github.com/B1zn3/SearchWork-Website/internal/apperr"
	"github.com/B1zn3/SearchWork-Website/internal/service"
)

const (
	msgInvalidJSON = "Некорректный JSON"
	msgInvalidForm = "Некорректные данные формы"
	msgInvalidID   = "Некорректный идентификатор"
	msgInvalidPage = "Некорректные параметры пагинации"
	msgTooLarge    = "Превышен допустимый размер запроса"
)

// multipartMemory is how much of a multipart body is held in memory before
// spilling file parts to disk.
const multipartMemory = 8 << 20

func pathID(r *http.Request) (int64, error) {
	id, err := strconv.ParseInt(mux.Vars(r)["id"], 10, 64)
	if err != nil || id <= 0 {
		return 0, apperr.Validation("id", msgInvalidID)
	}
	return id, nil
}

// pagination reads skip and limit from the query string. Missing values fall
// back to the defaults applied by service.Page.
func pagination(r *http.Request) (int, int, error) {
	q := r.URL.Query()

	offset, err := queryInt(q.Get("skip"))
	if err != nil {
		return 0, 0, apperr.Validation("skip", msgInvalidPage)
	}
	limit, err := queryInt(q.Get("limit"))
	if err != nil {
		return 0, 0, apperr.Validation("limit", msgInvalidPage)
	}

	offset, limit = service.Page(offset, limit)
	return offset, limit, nil
}

func queryInt(raw string) (int, error) {
	if raw == "" {
		return 0, nil
	}
	return strconv.Atoi(raw)
}

func isJSON(r *http.Request) bool {
	mt, _, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
	return err == nil && mt == "application/json"
}

func decodeJSON(r *http.Request, dst any) error {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return bodyError(err, msgInvalidJSON)
	}
	return nil
}

// parseForm accepts both multipart and urlencoded bodies.
func parseForm(r *http.Request) error {
	err := r.ParseMultipartForm(multipartMemory)
	if err != nil && !errors.Is(err, http.ErrNotMultipart) {
		return bodyError(err, msgInvalidForm)
	}
	return nil
}

func bodyError(err error, message string) error {
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		return apperr.Validation("body", msgTooLarge)
	}
	return apperr.Wrap(err, apperr.CodeValidation, message)
}

// formValues returns every value of a repeated form field. A single value
// holding a JSON array is expanded.
func formValues(r *http.Request, field string) []string {
	var values []string
	if r.MultipartForm != nil {
		values = r.MultipartForm.Value[field]
	}
	if len(values) == 0 {
		values = r.PostForm[field]
	}

	if len(values) == 1 && strings.HasPrefix(strings.TrimSpace(values[0]), "[") {
		var list []string
		if err := json.Unmarshal([]byte(values[0]), &list); err == nil {
			return list
		}
	}

	out := make([]string, 0, len(values))
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}

// openUploads opens every file sent under field. The returned closer must be
// called once the uploads have been consumed.
func openUploads(r *http.Request, field string) ([]service.Upload, func(), error) {
	if r.MultipartForm == nil {
		return nil, func() {}, nil
	}

	headers := r.MultipartForm.File[field]
	uploads := make([]service.Upload, 0, len(headers))
	files := make([]multipart.File, 0, len(headers))

	closeAll := func() {
		for _, f := range files {
			_ = f.Close()
		}
	}

	for _, fh := range headers {
		f, err := fh.Open()
		if err != nil {
			closeAll()
			return nil, func() {}, apperr.Wrap(err, apperr.CodeValidation, msgInvalidForm)
		}
		files = append(files, f)

		uploads = append(uploads, service.Upload{
			FileName:    fh.Filename,
			ContentType: fh.Header.Get("Content-Type"),
			Size:        fh.Size,
			Body:        f,
		})
	}

	return uploads, closeAll, nil
}

func limitBody(w http.ResponseWriter, r *http.Request, n int64) {
	r.Body = http.MaxBytesReader(w, r.Body, n)
}
