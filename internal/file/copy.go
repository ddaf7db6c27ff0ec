package file

import "io"

// ChunkSize is the read size used when streaming payloads into an archive.
const ChunkSize = 1 << 20

// Copy copies from src to dst in len(buf)-sized reads until EOF or error.
// It returns the number of bytes written.
func Copy(dst io.Writer, src io.Reader, buf []byte) (int64, error) {
	var written int64
	for {
		nr, er := src.Read(buf)
		if nr > 0 {
			nw, ew := dst.Write(buf[:nr])
			if nw > 0 {
				written += int64(nw)
			}
			if ew != nil {
				return written, ew
			}
			if nw != nr {
				return written, io.ErrShortWrite
			}
		}
		if er != nil {
			if er == io.EOF {
				return written, nil
			}
			return written, er
		}
	}
}
