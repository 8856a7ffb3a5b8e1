package posio

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"io"
	"math"
	"math/cmplx"
	"os"

	"github.com/DataDog/zstd"
)

const (
	// PsiMagic is the first eight bytes of every binary order parameter
	// file.
	PsiMagic = uint64(0x68657861746963a1)
	PsiVersion = 1
	// CompressionLevel is the zstd level used by WritePsiBinary.
	CompressionLevel = 3
)

// Format is a flag representing an order parameter file format.
type Format int
const (
	Text Format = iota
	Zstd
)

// ParseFormat converts "text" or "zstd" into a Format.
func ParseFormat(s string) (Format, error) {
	switch s {
	case "text": return Text, nil
	case "zstd": return Zstd, nil
	}
	return -1, fmt.Errorf("Unrecognized output format '%s'.", s)
}

// psiHeader is the header of a binary order parameter file. It's followed
// by CompressedBytes bytes of zstd-compressed data, which decompress to N
// little-endian (re, im) float64 pairs.
type psiHeader struct {
	Magic           uint64
	Version         int64
	N               int64
	CompressedBytes int64
}

// WritePsi writes psi to the file fname in the given format.
func WritePsi(fname string, format Format, psi []complex128) error {
	f, err := os.Create(fname)
	if err != nil { return err }

	switch format {
	case Zstd: err = WritePsiBinary(f, psi)
	default: err = WritePsiText(f, psi)
	}
	if err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// ReadPsi reads the order parameter file fname, which must have the given
// format.
func ReadPsi(fname string, format Format) ([]complex128, error) {
	f, err := os.Open(fname)
	if err != nil { return nil, err }
	defer f.Close()

	if format == Zstd { return ReadPsiBinary(f) }
	return ReadPsiText(f)
}

// WritePsiText writes psi as a text table with the columns
// index, Re(psi), Im(psi), |psi|, and arg(psi).
func WritePsiText(wr io.Writer, psi []complex128) error {
	bw := bufio.NewWriter(wr)
	fmt.Fprintln(bw, "# Column 0: particle index")
	fmt.Fprintln(bw, "# Column 1: Re(psi)")
	fmt.Fprintln(bw, "# Column 2: Im(psi)")
	fmt.Fprintln(bw, "# Column 3: |psi|")
	fmt.Fprintln(bw, "# Column 4: arg(psi)")
	for i, p := range psi {
		_, err := fmt.Fprintf(bw, "%d %.12g %.12g %.12g %.12g\n",
			i, real(p), imag(p), cmplx.Abs(p), cmplx.Phase(p))
		if err != nil { return err }
	}
	return bw.Flush()
}

// ReadPsiText reads a file written by WritePsiText.
func ReadPsiText(rd io.Reader) ([]complex128, error) {
	psi := []complex128{ }
	badRow := -1
	err := parseColumns(rd, DefaultTextConfig, []int{ 0, 1, 2 },
		func(vals []float64) {
			if badRow == -1 && int(vals[0]) != len(psi) { badRow = len(psi) }
			psi = append(psi, complex(vals[1], vals[2]))
		})
	if err != nil { return nil, err }
	if badRow != -1 {
		return nil, fmt.Errorf("row %d has the wrong particle index", badRow)
	}
	return psi, nil
}

// WritePsiBinary writes psi as a zstd-compressed binary file.
func WritePsiBinary(wr io.Writer, psi []complex128) error {
	if len(psi) == 0 {
		hd := psiHeader{ PsiMagic, PsiVersion, 0, 0 }
		return binary.Write(wr, binary.LittleEndian, &hd)
	}

	raw := make([]byte, 16*len(psi))
	for i, p := range psi {
		binary.LittleEndian.PutUint64(raw[16*i:], math.Float64bits(real(p)))
		binary.LittleEndian.PutUint64(raw[16*i+8:], math.Float64bits(imag(p)))
	}

	buf, err := zstd.CompressLevel(nil, raw, CompressionLevel)
	if err != nil { return err }

	hd := psiHeader{ PsiMagic, PsiVersion, int64(len(psi)), int64(len(buf)) }
	if err := binary.Write(wr, binary.LittleEndian, &hd); err != nil {
		return err
	}
	_, err = wr.Write(buf)
	return err
}

// ReadPsiBinary reads a file written by WritePsiBinary.
func ReadPsiBinary(rd io.Reader) ([]complex128, error) {
	hd := psiHeader{ }
	if err := binary.Read(rd, binary.LittleEndian, &hd); err != nil {
		return nil, err
	}

	switch {
	case hd.Magic != PsiMagic:
		return nil, fmt.Errorf("magic number is 0x%x, not 0x%x. This "+
			"probably isn't an order parameter file", hd.Magic, PsiMagic)
	case hd.Version != PsiVersion:
		return nil, fmt.Errorf("unsupported file version %d", hd.Version)
	case hd.N < 0 || hd.CompressedBytes < 0 || hd.N > math.MaxInt64/16:
		return nil, fmt.Errorf("corrupted header %+v", hd)
	}

	if hd.N == 0 { return []complex128{ }, nil }

	// buf only grows as data arrives.
	buf, err := io.ReadAll(io.LimitReader(rd, hd.CompressedBytes))
	if err != nil { return nil, err }
	if int64(len(buf)) != hd.CompressedBytes {
		return nil, fmt.Errorf("header gives %d bytes of compressed data, "+
			"but the file only contains %d", hd.CompressedBytes, len(buf))
	}

	raw, err := zstd.Decompress(nil, buf)
	if err != nil { return nil, err }
	if int64(len(raw)) != 16*hd.N {
		return nil, fmt.Errorf("header gives %d values, but the file "+
			"contains %d bytes of data", hd.N, len(raw))
	}

	psi := make([]complex128, hd.N)
	for i := range psi {
		re := math.Float64frombits(binary.LittleEndian.Uint64(raw[16*i:]))
		im := math.Float64frombits(binary.LittleEndian.Uint64(raw[16*i+8:]))
		psi[i] = complex(re, im)
	}
	return psi, nil
}
