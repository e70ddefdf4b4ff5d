// Package detector finds hands and faces in camera frames. Hands come back as
// MediaPipe's 21 landmarks; faces come back as emotion class probabilities.
package detector

// Landmark indices in the order the MediaPipe hand model emits them.
const (
	Wrist = iota
	ThumbCMC
	ThumbMCP
	ThumbIP
	ThumbTip
	IndexMCP
	IndexPIP
	IndexDIP
	IndexTip
	MiddleMCP
	MiddlePIP
	MiddleDIP
	MiddleTip
	RingMCP
	RingPIP
	RingDIP
	RingTip
	PinkyMCP
	PinkyPIP
	PinkyDIP
	PinkyTip
	NumLandmarks
)

// Handedness labels reported by MediaPipe.
const (
	Left  = "Left"
	Right = "Right"
)

// Point3D is a landmark in normalized image coordinates; Z is relative depth.
type Point3D struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

// HandLandmarks represents the 21 hand landmarks detected by MediaPipe.
type HandLandmarks struct {
	Points     [NumLandmarks]Point3D `json:"points"`
	Handedness string                `json:"handedness"` // "Left" or "Right"
	Score      float64               `json:"score"`
}

// WristPoint returns landmark 0.
func (h *HandLandmarks) WristPoint() Point3D {
	return h.Points[Wrist]
}

// SplitHands returns the first Left and first Right hand in hands. Either may
// be nil when that hand is absent.
func SplitHands(hands []HandLandmarks) (left, right *HandLandmarks) {
	for i := range hands {
		switch hands[i].Handedness {
		case Left:
			if left == nil {
				left = &hands[i]
			}
		case Right:
			if right == nil {
				right = &hands[i]
			}
		}
	}
	return left, right
}
