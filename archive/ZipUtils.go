package archive

import (
	"archive/zip"
	"io"

	"github.com/klauspost/compress/flate"
)

// NewMaxCompressionWriter returns a zip writer whose deflate entries use
// the strongest compression level. Archive contents are typically
// paginated pdf extracts with plenty of redundant structure, so the extra
// cpu is worth the size.
func NewMaxCompressionWriter(w io.Writer) *zip.Writer {
	zw := zip.NewWriter(w)
	zw.RegisterCompressor(zip.Deflate, func(out io.Writer) (io.WriteCloser, error) {
		return flate.NewWriter(out, flate.BestCompression)
	})
	return zw
}

func AddFileToZip(zw *zip.Writer, name string, content []byte) error {
	fw, err := zw.Create(name)
	if err != nil {
		return err
	}
	_, err = fw.Write(content)
	if err != nil {
		return err
	}
	return nil
}

func ReadZipFile(zf *zip.File) ([]byte, error) {
	f, err := zf.Open()
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return io.ReadAll(f)
}
