package detector

import (
	"fmt"
	"image"
	"sync"

	"go.uber.org/zap"
	"gocv.io/x/gocv"

	"github.com/ayusman/pianogames/internal/faults"
	"github.com/ayusman/pianogames/internal/logging"
)

// Emotion class order of the classifier output.
const (
	Angry = iota
	Disgust
	Fear
	Happy
	Neutral
	Sad
	Surprise
	NumEmotions
)

// EmotionLabels names each class index.
var EmotionLabels = [NumEmotions]string{"Angry", "Disgust", "Fear", "Happy", "Neutral", "Sad", "Surprise"}

// Emotions holds one probability per emotion class.
type Emotions [NumEmotions]float64

// FaceInputSize is the square grayscale input of the emotion network.
const FaceInputSize = 48

// FaceClassifier finds faces with a Haar cascade and classifies the largest
// one with an ONNX emotion network.
type FaceClassifier struct {
	cascade gocv.CascadeClassifier
	net     gocv.Net
	log     *zap.Logger
	mu      sync.Mutex
}

// NewFaceClassifier loads the cascade XML and the ONNX model.
func NewFaceClassifier(cascadePath, modelPath string, logger *zap.Logger) (*FaceClassifier, error) {
	cascade := gocv.NewCascadeClassifier()
	if !cascade.Load(cascadePath) {
		cascade.Close()
		return nil, faults.Device(fmt.Errorf("load cascade %s", cascadePath), "face detector",
			"Set paths.cascade to haarcascade_frontalface_default.xml")
	}

	net := gocv.ReadNetFromONNX(modelPath)
	if net.Empty() {
		cascade.Close()
		return nil, faults.Device(fmt.Errorf("load model %s", modelPath), "emotion classifier",
			"Set paths.emotion_model to the ONNX emotion network, or use manual mode")
	}

	return &FaceClassifier{
		cascade: cascade,
		net:     net,
		log:     logging.OrNop(logger),
	}, nil
}

// Read detects faces and classifies the largest one.
func (c *FaceClassifier) Read(frame *gocv.Mat) (Emotions, image.Rectangle, bool, error) {
	var e Emotions
	if frame == nil || frame.Empty() {
		return e, image.Rectangle{}, false, nil
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	gray := gocv.NewMat()
	defer gray.Close()
	gocv.CvtColor(*frame, &gray, gocv.ColorBGRToGray)

	faces := c.cascade.DetectMultiScaleWithParams(gray, 1.3, 5, 0, image.Point{}, image.Point{})
	box, ok := LargestFace(faces)
	if !ok {
		return e, image.Rectangle{}, false, nil
	}

	face := gray.Region(box)
	defer face.Close()

	blob := gocv.BlobFromImage(face, 1.0/255.0, image.Pt(FaceInputSize, FaceInputSize),
		gocv.NewScalar(0, 0, 0, 0), false, false)
	defer blob.Close()

	c.net.SetInput(blob, "")
	prob := c.net.Forward("")
	defer prob.Close()

	if prob.Total() < NumEmotions {
		return e, box, false, fmt.Errorf("emotion model returned %d outputs, want %d", prob.Total(), NumEmotions)
	}
	for i := range e {
		e[i] = float64(prob.GetFloatAt(0, i))
	}
	return e, box, true, nil
}

// Close releases the cascade and network.
func (c *FaceClassifier) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.cascade.Close()
	return c.net.Close()
}

// LargestFace returns the rectangle with the biggest area.
func LargestFace(faces []image.Rectangle) (image.Rectangle, bool) {
	if len(faces) == 0 {
		return image.Rectangle{}, false
	}
	best := faces[0]
	for _, f := range faces[1:] {
		if f.Dx()*f.Dy() > best.Dx()*best.Dy() {
			best = f
		}
	}
	return best, true
}
