package mic

import "strings"

// LastUsedStop is the consent store value that stays zero while an app holds
// the microphone.
const LastUsedStop = "LastUsedTimeStop"

// ConsentUser turns a consent store key name back into the app it names.
// Desktop apps are stored as their executable path with '#' for '\'.
func ConsentUser(keyName string) string {
	return strings.ReplaceAll(keyName, "#", `\`)
}
