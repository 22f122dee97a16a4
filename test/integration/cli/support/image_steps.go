package support

import (
	"fmt"
	"image"
	"os"
	"path/filepath"

	"github.com/MeKo-Tech/grainscan/internal/grid"
	"github.com/MeKo-Tech/grainscan/internal/testutil"
	"github.com/cucumber/godog"
	"github.com/disintegration/imaging"
)

// grainScene lays out interior square grains in a row and border grains on
// the left image edge.
func grainScene(interior, border int) *image.Gray {
	s := testutil.DefaultScene()
	s.Width = max(32, 16+14*interior)
	s.Height = max(48, 10*border)

	var shapes [][]grid.Point
	for i := range interior {
		shapes = append(shapes, testutil.Rect(8+14*i, 20, 6, 6))
	}
	for j := range border {
		shapes = append(shapes, testutil.Rect(0, 10*j, 4, 4))
	}
	return s.With(shapes...).Render()
}

func (testCtx *TestContext) saveImage(name string, img image.Image) error {
	path := testCtx.Path(name)
	if err := testutil.EnsureDir(filepath.Dir(path)); err != nil {
		return err
	}
	if err := imaging.Save(img, path); err != nil {
		return fmt.Errorf("failed to save image %s: %w", path, err)
	}
	return nil
}

// anImageWithGrains creates a synthetic grain image.
func (testCtx *TestContext) anImageWithGrains(name string, interior, border int) error {
	return testCtx.saveImage(name, grainScene(interior, border))
}

// aDirectoryWithImages fills dir with n images of two interior grains each.
func (testCtx *TestContext) aDirectoryWithImages(dir string, n int) error {
	if err := testutil.EnsureDir(testCtx.Path(dir)); err != nil {
		return err
	}
	for i := range n {
		if err := testCtx.saveImage(filepath.Join(dir, fmt.Sprintf("grains_%02d.png", i)), grainScene(2, 1)); err != nil {
			return err
		}
	}
	return nil
}

// anInvertedImageWithGrains creates dark grains on a light background.
func (testCtx *TestContext) anInvertedImageWithGrains(name string, interior int) error {
	img := grainScene(interior, 0)
	for i, v := range img.Pix {
		img.Pix[i] = 255 - v
	}
	return testCtx.saveImage(name, img)
}

// aPGMImageWithGrains writes a plain netpbm graymap.
func (testCtx *TestContext) aPGMImageWithGrains(name string, interior int) error {
	return os.WriteFile(testCtx.Path(name), testutil.EncodePGM(grainScene(interior, 0), false), 0o600)
}

func (testCtx *TestContext) aCorruptImage(name string) error {
	path := testCtx.Path(name)
	if err := testutil.EnsureDir(filepath.Dir(path)); err != nil {
		return err
	}
	return os.WriteFile(path, []byte("this is not an image"), 0o600)
}

// RegisterImageSteps registers synthetic input steps.
func (testCtx *TestContext) RegisterImageSteps(sc *godog.ScenarioContext) {
	sc.Step(`^an image "([^"]*)" with (\d+) interior grains? and (\d+) border grains?$`, testCtx.anImageWithGrains)
	sc.Step(`^a directory "([^"]*)" with (\d+) grain images?$`, testCtx.aDirectoryWithImages)
	sc.Step(`^an inverted image "([^"]*)" with (\d+) dark grains?$`, testCtx.anInvertedImageWithGrains)
	sc.Step(`^a PGM image "([^"]*)" with (\d+) grains?$`, testCtx.aPGMImageWithGrains)
	sc.Step(`^a corrupt image "([^"]*)"$`, testCtx.aCorruptImage)
}
