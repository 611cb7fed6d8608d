// Package fpimage converts fingerprint images between the module's raw
// transfer format and standard Go images.
//
// # Raw Format
//
// The module transfers a 256x288 image as 36864 bytes. Each byte holds two
// horizontally adjacent pixels as 4-bit gray levels, the high nibble being
// the left pixel. Rows run top to bottom.
//
// # Usage
//
//	raw, err := s.DownloadImage(ctx)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	if err := fpimage.SavePNG("finger.png", raw); err != nil {
//	    log.Fatal(err)
//	}
//
// Pack a PNG for upload:
//
//	raw, err := fpimage.LoadPNG("finger.png")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	err = s.UploadImage(ctx, raw)
package fpimage
