package env

import (
	"github.com/denisbrodbeck/machineid"
	"github.com/golang/glog"
)

// AppID salts the machine ID so it's not exposed as is.
const AppID = "draad"

// MachineID retrieves the ID identifying this machine for draad,
// or "localhost" if it's not available.
func MachineID() string {
	id, err := machineid.ProtectedID(AppID)
	if err != nil {
		glog.Warningf("machine ID unavailable: %v", err)
		return "localhost"
	}
	return id[:16]
}
