// Package drive uploads files to the amoCRM drive service in chunks.
//
// An upload is a session: CreateSession declares the file, every chunk is
// posted to the URL the previous response returned in next_url. Upload wires
// the loop together for an io.Reader.
//
//	uploader := drive.NewUploader(tm)
//	err := uploader.Upload(ctx, file, "cat.jpeg", fileSize, "image/jpeg")
//
// Authentication goes through the same bearer middleware as the REST client,
// so expired tokens surface as the typed oauth2client errors.
package drive
