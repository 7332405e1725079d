// Package find locates USB serial devices, so the example programs can
// guess which tty the GPIB controller is attached to.
package find

import (
	"errors"
	"fmt"
	"io/fs"
	"log"
	"os"
	"path/filepath"
	"strings"
)

type FilterFn func(*Usbtty) bool

// ArduinoFilter matches Arduino-based controllers such as the AR488.
func ArduinoFilter(ut *Usbtty) bool {
	return strings.Contains(ut.Mfg, "Arduino")
}

// PrologixFilter matches the FTDI bridge on Prologix GPIB-USB controllers.
func PrologixFilter(ut *Usbtty) bool {
	return strings.Contains(ut.Prod, "Prologix")
}

// SerialFilter matches a device by its USB serial number.
func SerialFilter(s string) func(ut *Usbtty) bool {
	return func(ut *Usbtty) bool { return ut.Serial == s }
}

// Find searches for a usb serial device. If filter is not nil,
// it is used to narrow choices down. The first device for which
// it returns true (if any) is chosen.
func Find(filter FilterFn) (string, error) {
	ttys, err := AllUsbTtys()
	if err != nil {
		return "", err
	}
	dev, err := pick(ttys, filter)
	if err != nil {
		return "", err
	}
	return dev, nil
}

// pick applies filter to ttys and returns the chosen device name. Separated
// from Find so the selection logic is testable without /sys.
func pick(ttys Usbttys, filter FilterFn) (string, error) {
	if filter != nil {
		for i := range ttys {
			if filter(&ttys[i]) {
				ttys = []Usbtty{ttys[i]}
				break
			}
		}
	}

	if len(ttys) == 0 {
		return "", fmt.Errorf("no matching ttys found")
	}
	if len(ttys) == 1 {
		return ttys[0].Dev, nil
	}
	return "", fmt.Errorf("multiple ttys: %#v", ttys)
}

type Usbtty struct {
	Dev, Path string
	IDp, IDv  string
	Mfg, Prod string
	Serial    string
}

func (u Usbtty) String() string {
	return fmt.Sprintf("dev %s path %s pid/vid %s/%s mfg/prod %s/%s serial %s", u.Dev, u.Path, u.IDp, u.IDv, u.Mfg, u.Prod, u.Serial)
}

type Usbttys []Usbtty

func (uts Usbttys) String() string {
	s := make([]string, 0, len(uts))
	for _, ut := range uts {
		s = append(s, ut.String())
	}
	return strings.Join(s, "\n")
}

// AllUsbTtys finds ttys on usb devices, by looking at
// /sys/class/tty and other /sys paths.
func AllUsbTtys() (Usbttys, error) {
	var devs []Usbtty
	sct := "/sys/class/tty/"
	entries, err := os.ReadDir(sct)
	if err != nil {
		return nil, err
	}
	for _, e := range entries {
		if e.Type()&fs.ModeSymlink == 0 {
			// just in case there's anything in the dir that isn't a symlink
			continue
		}
		// we have a symlink like
		// /sys/class/tty/ttyACM0 ->
		// /sys/devices/pci0000:00/0000:00:01.3/0000:02:00.0/usb1/1-10/1-10:1.0/tty/ttyACM0
		path := filepath.Join(sct, e.Name())
		abs, err := filepath.EvalSymlinks(path)
		if err != nil {
			log.Printf("error evaluating symlink %s; skipping: %s", path, err)
			continue
		}
		if strings.Contains(abs, "usb") {
			dev, err := filepath.EvalSymlinks(filepath.Join(abs, "device"))
			if err != nil {
				log.Printf("usb but lacking device subdir?! %s %s", abs, err)
			}
			// for usb, device points up two levels. back out one more level
			// to reach the directory holding the id and string files.
			idP, idV, mfg, prod, serial, err := readUsbInfo(filepath.Dir(dev))
			if err != nil {
				log.Printf("%s: %s", abs, err)
			}
			devs = append(devs, Usbtty{
				Dev:    e.Name(),
				Path:   abs,
				IDp:    idP,
				IDv:    idV,
				Mfg:    mfg,
				Prod:   prod,
				Serial: serial,
			})
		}
	}
	return devs, nil
}

// readUsbInfo reads prod and vendor ids, and mfg/product/serial strings.
//
// It returns the last error encountered, ignoring os.ErrNotExist. Errors do
// not prevent reading additional files or returning data collected.
func readUsbInfo(dev string) (idp, idv, mfg, prod, serial string, err error) {
	readstr := func(name string) string {
		b, rerr := os.ReadFile(filepath.Join(dev, name))
		if rerr != nil && !errors.Is(rerr, os.ErrNotExist) {
			err = rerr
		}
		return strings.TrimSpace(string(b))
	}
	idp = readstr("idProduct")
	idv = readstr("idVendor")
	mfg = readstr("manufacturer")
	prod = readstr("product")
	serial = readstr("serial")
	return idp, idv, mfg, prod, serial, err
}
