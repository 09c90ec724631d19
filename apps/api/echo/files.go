package echoapi

import (
	"io"
	"mime"
	"net/http"
	"path"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/kizito-simon15/montessori-sub000/core"
	"github.com/kizito-simon15/montessori-sub000/services/filestore"
)

// uploadFolders are the attachment folders and the roles allowed to write them.
var uploadFolders = map[string][]string{
	"purchases":    {RoleStorekeeper, RoleBursar},
	"kitchen":      {RoleStorekeeper, RoleBursar},
	"expenditures": {RoleBursar},
}

type filesApi struct {
	store core.FileStore
}

func registerFilesAPI(g *echo.Group, store core.FileStore) {
	api := filesApi{store: store}

	fg := g.Group("/files/:folder", api.folderMiddleware)
	fg.POST("", api.upload)
	fg.GET("/:name", api.download)
	fg.DELETE("/:name", api.destroy)
}

type UploadResponse struct {
	Key string `json:"key"`
}

// folderMiddleware refuses unknown folders and staff without one of the folder's roles.
func (api *filesApi) folderMiddleware(next echo.HandlerFunc) echo.HandlerFunc {
	return func(ctx echo.Context) error {
		roles, ok := uploadFolders[ctx.Param("folder")]
		if !ok {
			return errUnknownUploadTo
		}
		return roleMiddleware(roles...)(next)(ctx)
	}
}

// upload stores the multipart `file` field; the returned key goes in invoice_file or attachment.
func (api *filesApi) upload(ctx echo.Context) error {
	fh, err := ctx.FormFile("file")
	if err != nil {
		return errors.Wrap(errMissingFile, err.Error())
	}
	if fh.Size > filestore.MaxFileSize {
		return errFileTooLarge
	}
	f, err := fh.Open()
	if err != nil {
		return errors.Wrap(err, "opening uploaded file")
	}
	defer func() { _ = f.Close() }()

	key, err := api.store.Save(ctx.Request().Context(), ctx.Param("folder"), fh.Filename, f)
	if err != nil {
		return errors.Wrap(err, "saving uploaded file")
	}
	return ctx.JSON(http.StatusCreated, UploadResponse{Key: key})
}

func (api *filesApi) key(ctx echo.Context) string {
	return path.Join(ctx.Param("folder"), ctx.Param("name"))
}

func (api *filesApi) download(ctx echo.Context) error {
	key := api.key(ctx)
	rc, err := api.store.Open(key)
	if err != nil {
		return errors.Wrapf(err, "opening file %q", key)
	}
	defer func() { _ = rc.Close() }()

	contentType := mime.TypeByExtension(path.Ext(key))
	if contentType == "" {
		contentType = echo.MIMEOctetStream
	}
	ctx.Response().Header().Set(echo.HeaderContentType, contentType)
	ctx.Response().WriteHeader(http.StatusOK)
	_, err = io.Copy(ctx.Response(), rc)
	return err
}

func (api *filesApi) destroy(ctx echo.Context) error {
	if err := api.store.Remove(api.key(ctx)); err != nil {
		return errors.Wrap(err, "removing file")
	}
	return ctx.NoContent(http.StatusNoContent)
}
