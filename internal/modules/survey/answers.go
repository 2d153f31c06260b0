package survey

import "fmt"

// ButtonValues maps a 1-based frame button index to the stored answer value.
var ButtonValues = [4]int{2, 1, -1, -2}

// ButtonTitles are rendered in the same order as ButtonValues.
var ButtonTitles = [4]string{"Strongly Agree", "Agree", "Disagree", "Strongly Disagree"}

var agreementLabels = map[int]string{
	-2: "Strongly Disagree",
	-1: "Disagree",
	1:  "Agree",
	2:  "Strongly Agree",
}

// ValueForButton converts a tapped button index into an answer value.
func ValueForButton(index int) (int, error) {
	if index < 1 || index > len(ButtonValues) {
		return 0, fmt.Errorf("button index %d out of range 1..%d", index, len(ButtonValues))
	}
	return ButtonValues[index-1], nil
}

// AgreementLabel returns the human label for an answer value, or "" when the
// value is not on the scale.
func AgreementLabel(value int) string {
	return agreementLabels[value]
}

// AgreementLabels lists the scale from strongest agreement to strongest
// disagreement.
func AgreementLabels() []string {
	return ButtonTitles[:]
}
