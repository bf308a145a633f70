// Package upload validates and stores user files attached to a draft.
//
// A Validator checks each file against a Config: size bounds, accepted
// types (extension plus content sniffing) and, for images, pixel
// dimensions. An Uploader validates a batch, writes the accepted files to a
// storage.Storage concurrently with retries, and reports a Result per file.
//
//	up, err := upload.NewUploader(store, upload.Config{
//		Accept:   []upload.AcceptRule{{MIME: "image/*"}},
//		MaxSize:  "5MB",
//		MaxFiles: 4,
//	}, log)
//	results, err := up.Upload(ctx, files)
package upload
