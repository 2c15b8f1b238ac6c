package whisperx

// Config captures runtime settings for WhisperX runs.
type Config struct {
	// Model is the Whisper model name (e.g. "large-v3-turbo").
	Model string
	// Device is auto, cpu or cuda. Auto selects cuda only when CUDAEnabled.
	Device      string
	CUDAEnabled bool
	// VADMethod selects voice activity detection ("silero" or "pyannote").
	VADMethod string
	// HFToken is the Hugging Face token required by pyannote VAD.
	HFToken string
	// UVXBinary runs the WhisperX package; defaults to "uvx".
	UVXBinary string
}

// WhisperX invocation constants.
const (
	DefaultModel      = "large-v3"
	CUDAIndexURL      = "https://download.pytorch.org/whl/cu128"
	PypiIndexURL      = "https://pypi.org/simple"
	BatchSize         = "4"
	ChunkSize         = "15"
	VADOnset          = "0.08"
	VADOffset         = "0.07"
	DefaultBeamSize   = 5
	Temperature       = "0.0"
	Patience          = "1.0"
	SegmentResolution = "sentence"
	OutputFormat      = "json"
	CPUDevice         = "cpu"
	CUDADevice        = "cuda"
	CPUComputeType    = "float32"
	VADMethodPyannote = "pyannote"
	VADMethodSilero   = "silero"
	UVXCommand        = "uvx"
)
