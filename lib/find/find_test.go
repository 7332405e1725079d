package find

import "testing"

func ttys() Usbttys {
	return Usbttys{
		{Dev: "ttyUSB0", Mfg: "FTDI", Prod: "Prologix GPIB-USB Controller", Serial: "PX8X3YR6"},
		{Dev: "ttyACM0", Mfg: "Arduino (www.arduino.cc)", Prod: "Arduino Uno", Serial: "85734323939351E0E16"},
	}
}

func TestPickFiltered(t *testing.T) {
	tests := []struct {
		name   string
		filter FilterFn
		want   string
	}{
		{"prologix", PrologixFilter, "ttyUSB0"},
		{"arduino", ArduinoFilter, "ttyACM0"},
		{"serial", SerialFilter("PX8X3YR6"), "ttyUSB0"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dev, err := pick(ttys(), tt.filter)
			if err != nil {
				t.Fatal(err)
			}
			if dev != tt.want {
				t.Errorf("picked %s, want %s", dev, tt.want)
			}
		})
	}
}

func TestPickAmbiguous(t *testing.T) {
	if _, err := pick(ttys(), nil); err == nil {
		t.Error("expected error for multiple unfiltered ttys")
	}
}

func TestPickNone(t *testing.T) {
	if _, err := pick(nil, nil); err == nil {
		t.Error("expected error for no ttys")
	}
	if _, err := pick(ttys(), SerialFilter("nope")); err == nil {
		// no match leaves the full ambiguous list
		t.Error("expected error for unmatched filter over multiple ttys")
	}
}
