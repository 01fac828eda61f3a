package botapi

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/textproto"
	"path/filepath"
	"strconv"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	apierrors "github.com/central-university-dev/go-tgbot/internal/domain/errors"
)

// InputFile совпадает по набору методов с tgbotapi.RequestFileData, поэтому
// любые файлы tgbotapi можно передавать напрямую.
type InputFile interface {
	NeedsUpload() bool
	UploadData() (string, io.Reader, error)
	SendData() string
}

type (
	FileID     = tgbotapi.FileID
	FileURL    = tgbotapi.FileURL
	FilePath   = tgbotapi.FilePath
	FileBytes  = tgbotapi.FileBytes
	FileReader = tgbotapi.FileReader
)

type mimeTyper interface {
	MIMEType() string
}

type typedFile struct {
	InputFile
	mime string
}

func (f typedFile) MIMEType() string {
	return f.mime
}

// WithMIME задает Content-Type части с файлом.
func WithMIME(file InputFile, mime string) InputFile {
	return typedFile{InputFile: file, mime: mime}
}

const defaultFileMIME = "application/octet-stream"

type FormValue struct {
	text string
	file InputFile
	err  error
}

func Text(s string) FormValue {
	return FormValue{text: s}
}

func File(file InputFile) FormValue {
	return FormValue{file: file}
}

func (v FormValue) IsFile() bool {
	return v.file != nil
}

func (v FormValue) String() string {
	if v.file != nil && !v.file.NeedsUpload() {
		return v.file.SendData()
	}

	return v.text
}

// Form - поля multipart запроса в порядке первой вставки.
type Form struct {
	names  []string
	values map[string]FormValue
}

func NewForm() *Form {
	return &Form{values: make(map[string]FormValue)}
}

// Insert заменяет значение уже существующего поля, не меняя его позицию.
func (f *Form) Insert(name string, value FormValue) *Form {
	if _, ok := f.values[name]; !ok {
		f.names = append(f.names, name)
	}

	f.values[name] = value

	return f
}

func (f *Form) InsertText(name string, value any) *Form {
	text, err := stringify(value)

	return f.Insert(name, FormValue{text: text, err: err})
}

func (f *Form) InsertFile(name string, file InputFile) *Form {
	return f.Insert(name, File(file))
}

func (f *Form) Get(name string) (FormValue, bool) {
	v, ok := f.values[name]
	return v, ok
}

func (f *Form) Fields() []string {
	return append([]string(nil), f.names...)
}

func (f *Form) Len() int {
	return len(f.names)
}

// Build собирает тело запроса. Читатели файлов расходуются и закрываются,
// поэтому форма собирается один раз.
func (f *Form) Build() ([]byte, string, error) {
	var buf bytes.Buffer

	w := multipart.NewWriter(&buf)

	for i, name := range f.names {
		if err := writeField(w, name, f.values[name]); err != nil {
			f.closeReaders(f.names[i+1:])
			return nil, "", err
		}
	}

	if err := w.Close(); err != nil {
		return nil, "", &apierrors.FormError{Cause: err}
	}

	return buf.Bytes(), w.FormDataContentType(), nil
}

// closeReaders закрывает потоки полей, до которых сборка не дошла.
func (f *Form) closeReaders(names []string) {
	for _, name := range names {
		file := f.values[name].file
		if typed, ok := file.(typedFile); ok {
			file = typed.InputFile
		}

		var r io.Reader

		switch v := file.(type) {
		case FileReader:
			r = v.Reader
		case *FileReader:
			if v != nil {
				r = v.Reader
			}
		}

		if closer, ok := r.(io.Closer); ok {
			_ = closer.Close()
		}
	}
}

func writeField(w *multipart.Writer, name string, value FormValue) error {
	if value.err != nil {
		return &apierrors.FormError{Field: name, Cause: value.err}
	}

	if value.file == nil || !value.file.NeedsUpload() {
		if err := w.WriteField(name, value.String()); err != nil {
			return &apierrors.FormError{Field: name, Cause: err}
		}

		return nil
	}

	filename, r, err := value.file.UploadData()
	if err != nil {
		return &apierrors.FormError{Field: name, Cause: err}
	}

	if closer, ok := r.(io.Closer); ok {
		defer closer.Close()
	}

	// FilePath из tgbotapi возвращает полный путь к файлу.
	filename = filepath.Base(filename)
	if filename == "" || filename == "." || filename == string(filepath.Separator) {
		filename = "file-" + name
	}

	mime := defaultFileMIME
	if typed, ok := value.file.(mimeTyper); ok && typed.MIMEType() != "" {
		mime = typed.MIMEType()
	}

	header := make(textproto.MIMEHeader)
	header.Set("Content-Disposition",
		fmt.Sprintf(`form-data; name="%s"; filename="%s"`, escapeQuotes(name), escapeQuotes(filename)))
	header.Set("Content-Type", mime)

	part, err := w.CreatePart(header)
	if err != nil {
		return &apierrors.FormError{Field: name, Cause: err}
	}

	if _, err := io.Copy(part, r); err != nil {
		return &apierrors.FormError{Field: name, Cause: err}
	}

	return nil
}

var quoteEscaper = strings.NewReplacer("\\", "\\\\", `"`, "\\\"")

func escapeQuotes(s string) string {
	return quoteEscaper.Replace(s)
}

func stringify(value any) (string, error) {
	switch v := value.(type) {
	case string:
		return v, nil
	case bool:
		return strconv.FormatBool(v), nil
	case int:
		return strconv.Itoa(v), nil
	case int64:
		return strconv.FormatInt(v, 10), nil
	case int32:
		return strconv.FormatInt(int64(v), 10), nil
	case int16:
		return strconv.FormatInt(int64(v), 10), nil
	case int8:
		return strconv.FormatInt(int64(v), 10), nil
	case uint:
		return strconv.FormatUint(uint64(v), 10), nil
	case uint64:
		return strconv.FormatUint(v, 10), nil
	case uint32:
		return strconv.FormatUint(uint64(v), 10), nil
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64), nil
	case float32:
		return strconv.FormatFloat(float64(v), 'f', -1, 32), nil
	case json.RawMessage:
		return string(v), nil
	default:
		data, err := json.Marshal(v)
		if err != nil {
			return "", err
		}

		return string(data), nil
	}
}
