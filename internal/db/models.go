package db

type (
	// Image represents a source image path or URL
	Image struct {
		ID  int64
		URI string // Unique constraint
	}

	// ImageSize represents the decomposed dimensions
	ImageSize struct {
		ID      int64
		ImageID int64
		Width   int
		Height  int
		// Unique constraint on (ImageID, Width, Height)
	}

	// Run represents one decomposition of an image
	Run struct {
		ID             int64
		ImageSizeID    int64
		GrayMode       string
		SingularValues []float64
	}

	// Approximation represents one reconstructed rank
	Approximation struct {
		ID             int64
		RunID          int64
		Rank           int
		FrobeniusError float64
		RelativeError  float64
		Energy         float64
		StorageRatio   float64
		OutputPath     string
		// Unique constraint on (RunID, Rank)
	}
)
